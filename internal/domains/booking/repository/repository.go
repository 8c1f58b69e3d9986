package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"serenity/infras/otel"
	"serenity/infras/postgres"
	"serenity/internal/domains/booking/model"
	"serenity/shared/constant"
	gDto "serenity/shared/dto"
	"serenity/shared/logger"
	gRepo "serenity/shared/repository"
)

var bookingColumns = strings.Join([]string{
	model.FieldID,
	model.FieldServiceID,
	model.FieldStaffID,
	model.FieldRoomID,
	model.FieldBookingGroupID,
	model.FieldCustomerName,
	model.FieldCustomerEmail,
	model.FieldCustomerPhone,
	model.FieldBookingDate,
	model.FieldStartMinute,
	model.FieldEndMinute,
	model.FieldBufferStart,
	model.FieldBufferEnd,
	model.FieldStatus,
	model.FieldBookingType,
	model.FieldNotes,
	model.FieldCancelReason,
	model.FieldRescheduledFrom,
	model.FieldRescheduleCount,
	"created_by",
	"modified_by",
}, ", ")

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	ListForDate(ctx context.Context, date time.Time) ([]model.Booking, error)
	ListForDateTx(ctx context.Context, sqltx *sqlx.Tx, date time.Time) ([]model.Booking, error)
	InTransaction(ctx context.Context, fn func(sqltx *sqlx.Tx) error) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// holdingFilter restricts a query to bookings that still occupy their staff
// and room.
func holdingFilter() gDto.Filter {
	return gDto.Filter{
		Operator: gDto.FilterPlainQuery,
		Value: fmt.Sprintf("%s.%s IN ('%s', '%s')",
			model.TableName, model.FieldStatus, model.StatusPending, model.StatusConfirmed),
	}
}

// ListForDate returns every booking on the given date that still holds its
// resources. Released bookings (cancelled, completed, no-show, rescheduled)
// never conflict, so they are filtered out at the storage layer.
func (repo *repositoryImpl) ListForDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ListForDate")
	defer scope.End()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldBookingDate,
				Operator: gDto.FilterOperatorEq,
				Value:    date.Format(constant.CalendarDateFormat),
				Table:    model.TableName,
			},
			holdingFilter(),
		},
	}

	return repo.GetAll(ctx, gDto.QueryParams{}, filter) //nolint:wrapcheck
}

// ListForDateTx re-reads the date's resource-holding bookings inside an open
// transaction. Under serializable isolation this read is what makes two
// concurrent grants for the same staff or room conflict at commit.
func (repo *repositoryImpl) ListForDateTx(ctx context.Context, sqltx *sqlx.Tx, date time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ListForDateTx")
	defer scope.End()

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 AND %s IN ($2, $3)",
		bookingColumns, model.TableName, model.FieldBookingDate, model.FieldStatus,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var bookings []model.Booking

	err := sqltx.SelectContext(ctx, &bookings, query, date.Format(constant.CalendarDateFormat), model.StatusPending, model.StatusConfirmed)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to list bookings for date in tx (%s): %w", model.EntityName, err)
	}

	return bookings, nil
}

// InTransaction runs fn inside a serializable write transaction. The
// transaction commits when fn returns nil and rolls back otherwise; commit
// errors are returned so the caller can spot a lost serialization race via
// IsRetryableConflict.
func (repo *repositoryImpl) InTransaction(ctx context.Context, fn func(sqltx *sqlx.Tx) error) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".InTransaction")
	defer scope.End()

	sqltx, err := repo.db.Write.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to begin serializable transaction (%s): %w", model.EntityName, err)
	}

	if err = fn(sqltx); err != nil {
		if rollbackErr := sqltx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			logger.ErrorWithStack(rollbackErr)
		}

		return err
	}

	if err = sqltx.Commit(); err != nil {
		scope.TraceError(err)

		return fmt.Errorf("failed to commit transaction (%s): %w", model.EntityName, err)
	}

	return nil
}

// IsRetryableConflict reports whether a commit or insert failed because a
// concurrent transaction raced this one: either the serializable isolation
// check (40001) or the overlap exclusion constraint (23P01) fired. Both mean
// the candidate may succeed on a fresh attempt with re-read state.
func IsRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == constant.PqErrorCodeSerializationFailure ||
		pqErr.Code == constant.PqErrorCodeExclusionViolation
}

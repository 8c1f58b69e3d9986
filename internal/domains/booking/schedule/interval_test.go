package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serenity/internal/domains/booking/schedule"
)

func businessHours(t *testing.T) schedule.Hours {
	t.Helper()

	hours, err := schedule.NewHours("09:00", "20:00", 15)
	assert.NoError(t, err)

	return hours
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		clock   string
		want    int
		wantErr bool
	}{
		{name: "opening time", clock: "09:00", want: 540},
		{name: "closing time", clock: "20:00", want: 1200},
		{name: "midnight", clock: "00:00", want: 0},
		{name: "last minute of day", clock: "23:59", want: 1439},
		{name: "not a clock", clock: "nope", wantErr: true},
		{name: "out of range hour", clock: "25:00", wantErr: true},
		{name: "missing minutes", clock: "09", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schedule.ParseClock(tt.clock)

			if tt.wantErr {
				assert.ErrorIs(t, err, schedule.ErrInvalidClock)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:00", schedule.FormatClock(540))
	assert.Equal(t, "20:00", schedule.FormatClock(1200))
	assert.Equal(t, "09:05", schedule.FormatClock(545))
}

func TestTimeInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a    schedule.TimeInterval
		b    schedule.TimeInterval
		want bool
	}{
		{
			name: "disjoint",
			a:    schedule.TimeInterval{Start: 540, End: 600},
			b:    schedule.TimeInterval{Start: 700, End: 760},
			want: false,
		},
		{
			name: "touching boundaries do not overlap",
			a:    schedule.TimeInterval{Start: 540, End: 600},
			b:    schedule.TimeInterval{Start: 600, End: 660},
			want: false,
		},
		{
			name: "one minute of overlap",
			a:    schedule.TimeInterval{Start: 540, End: 601},
			b:    schedule.TimeInterval{Start: 600, End: 660},
			want: true,
		},
		{
			name: "containment",
			a:    schedule.TimeInterval{Start: 540, End: 720},
			b:    schedule.TimeInterval{Start: 600, End: 660},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeInterval_Intersect(t *testing.T) {
	overlap, ok := schedule.TimeInterval{Start: 540, End: 660}.Intersect(schedule.TimeInterval{Start: 600, End: 720})
	assert.True(t, ok)
	assert.Equal(t, schedule.TimeInterval{Start: 600, End: 660}, overlap)

	_, ok = schedule.TimeInterval{Start: 540, End: 600}.Intersect(schedule.TimeInterval{Start: 600, End: 660})
	assert.False(t, ok)
}

func TestHours_ComputeSlot(t *testing.T) {
	hours := businessHours(t)

	tests := []struct {
		name         string
		start        int
		duration     int
		wantOccupied schedule.TimeInterval
		wantBuffered schedule.TimeInterval
		wantErr      error
	}{
		{
			name:         "mid day gets full padding",
			start:        600,
			duration:     60,
			wantOccupied: schedule.TimeInterval{Start: 600, End: 660},
			wantBuffered: schedule.TimeInterval{Start: 585, End: 675},
		},
		{
			name:         "buffer clamps at opening",
			start:        540,
			duration:     60,
			wantOccupied: schedule.TimeInterval{Start: 540, End: 600},
			wantBuffered: schedule.TimeInterval{Start: 540, End: 615},
		},
		{
			name:         "buffer clamps at closing",
			start:        1140,
			duration:     60,
			wantOccupied: schedule.TimeInterval{Start: 1140, End: 1200},
			wantBuffered: schedule.TimeInterval{Start: 1125, End: 1200},
		},
		{
			name:     "treatment may not start before opening",
			start:    530,
			duration: 60,
			wantErr:  schedule.ErrOutsideBusinessHours,
		},
		{
			name:     "treatment may not run past closing",
			start:    1150,
			duration: 60,
			wantErr:  schedule.ErrOutsideBusinessHours,
		},
		{
			name:     "duration must be positive",
			start:    600,
			duration: 0,
			wantErr:  schedule.ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := hours.ComputeSlot(tt.start, tt.duration)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantOccupied, slot.Occupied)
			assert.Equal(t, tt.wantBuffered, slot.Buffered)
		})
	}
}

func TestNewHours(t *testing.T) {
	_, err := schedule.NewHours("garbage", "20:00", 15)
	assert.ErrorIs(t, err, schedule.ErrInvalidClock)

	_, err = schedule.NewHours("20:00", "09:00", 15)
	assert.ErrorIs(t, err, schedule.ErrInvalidInterval)
}

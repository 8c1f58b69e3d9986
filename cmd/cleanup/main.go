package main

import (
	"context"
	"serenity/config"
	"serenity/di"
	"serenity/shared/logger"

	"github.com/rs/zerolog/log"
)

// Cancels bookings still pending past the abandonment window. Meant to be
// run on a schedule, e.g. a cron entry every few minutes.
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	bookingService := di.InitializeCleanupJob()

	cancelled, err := bookingService.CancelAbandoned(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to cancel abandoned bookings")
	}

	log.Info().Int("cancelled", cancelled).Msg("Abandoned bookings cleanup completed")
}

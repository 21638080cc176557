package worker

// expiry_cron.go
// Background goroutine that periodically flips lapsed subscriptions to
// expired. Reads never depend on this sweep — lapsed subscriptions already
// report as expired — it only persists the transition so listings and
// reporting see the final status.

import (
	"context"
	"time"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/repository"

	"github.com/rs/zerolog/log"
)

// ExpiryCronConfig holds the dependencies for the expiry sweep.
type ExpiryCronConfig struct {
	SubscriptionRepo repository.SubscriptionRepository
	Interval         time.Duration
}

// StartExpiryCron launches a goroutine that runs the sweep once at startup
// and then on every tick. The sweep is idempotent, so overlapping runs
// across restarts or replicas are harmless.
func StartExpiryCron(ctx context.Context, cfg ExpiryCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("expiry_cron: started")
		sweep(ctx, cfg)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_cron: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, cfg)
			}
		}
	}()
}

func sweep(ctx context.Context, cfg ExpiryCronConfig) {
	expired, err := cfg.SubscriptionRepo.ExpireLapsed(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("expiry_cron: sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("expiry_cron: subscriptions expired")
	}
}

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	db "github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/matches"
)

const sweepTimeout = 30 * time.Second

// Sweeper rejects pending matches whose scheduled start has already passed
// without an owner ruling. It goes through the lifecycle engine so status
// changes follow the same path as owner actions.
type Sweeper struct {
	db     *db.DB
	engine *matches.Engine
}

func NewSweeper(database *db.DB, engine *matches.Engine) *Sweeper {
	return &Sweeper{db: database, engine: engine}
}

// RegisterJob schedules the sweep on the singleton scheduler.
func (s *Sweeper) RegisterJob(cronExpr string) error {
	_, err := AddJob("reject_stale_pending_matches", cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := s.Run(ctx, time.Now()); err != nil {
			log.Error().Err(err).Msg("Pending-match sweep failed")
		}
	})
	return err
}

// Run rejects every pending match starting before cutoff.
func (s *Sweeper) Run(ctx context.Context, cutoff time.Time) error {
	stale, err := s.db.Queries.ListPendingMatchesStartingBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	logger := log.Ctx(ctx).With().Str("component", "match_sweep").Logger()
	logger.Info().Int("match_count", len(stale)).Msg("Rejecting stale pending matches")

	for _, match := range stale {
		if _, err := s.engine.RejectRequest(ctx, match.ID); err != nil {
			logger.Error().Err(err).Int64("match_id", match.ID).Msg("Failed to reject stale match")
			continue
		}
		logger.Info().
			Int64("match_id", match.ID).
			Time("start_time", match.StartTime).
			Msg("Stale pending match rejected")
	}
	return nil
}

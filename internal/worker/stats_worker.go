package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizdeck/quizdeck-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StatsBatchSize    = 50
	StatsBatchTimeout = 2 * time.Second
	StatsPollTimeout  = 1 * time.Second
)

// StatsWorker drains the stats queue and applies cumulative user counters in
// batches, keeping the profile update off the attempt finalization path.
type StatsWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewStatsWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "stats_worker").Logger(),
	}
}

type statsPayload struct {
	UserID       int     `json:"user_id"`
	QuizzesTaken int     `json:"quizzes_taken"`
	ScoreDelta   float64 `json:"score_delta"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")

	batch := make([]*statsPayload, 0, StatsBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= StatsBatchSize || time.Since(lastFlush) >= StatsBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatsPollTimeout, config.WorkerKey.PersistStatsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p statsPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch update wrapper
// ----------------------------------------------------------------

func (w *StatsWorker) flushSafe(ctx context.Context, batch []*statsPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateStats(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk stats update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistStatsQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL UPDATE using UNNEST + alias
// ----------------------------------------------------------------

func (w *StatsWorker) bulkUpdateStats(ctx context.Context, batch []*statsPayload) error {
	// Increments for the same user must collapse to one row: UNNEST-joined
	// UPDATE applies at most one source row per target.
	merged := make(map[int]*statsPayload, len(batch))
	for _, p := range batch {
		if m, ok := merged[p.UserID]; ok {
			m.QuizzesTaken += p.QuizzesTaken
			m.ScoreDelta += p.ScoreDelta
		} else {
			merged[p.UserID] = &statsPayload{
				UserID:       p.UserID,
				QuizzesTaken: p.QuizzesTaken,
				ScoreDelta:   p.ScoreDelta,
			}
		}
	}

	userIDs := make([]int, 0, len(merged))
	taken := make([]int, 0, len(merged))
	deltas := make([]float64, 0, len(merged))
	for _, p := range merged {
		userIDs = append(userIDs, p.UserID)
		taken = append(taken, p.QuizzesTaken)
		deltas = append(deltas, p.ScoreDelta)
	}

	query := `
		UPDATE users_profile AS u
		SET total_quizzes_taken = u.total_quizzes_taken + t.taken,
		    total_score = u.total_score + t.delta,
		    updated_at = CURRENT_TIMESTAMP
		FROM (
			SELECT
				s.user_id,
				s.taken,
				s.delta
			FROM UNNEST(
				$1::int[],
				$2::int[],
				$3::float8[]
			) AS s (user_id, taken, delta)
		) AS t
		WHERE u.id = t.user_id
	`

	_, err := w.pool.Exec(ctx, query, userIDs, taken, deltas)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single update
// ----------------------------------------------------------------

func (w *StatsWorker) persistSingle(ctx context.Context, p *statsPayload) error {
	_, err := w.pool.Exec(ctx,
		`UPDATE users_profile
		 SET total_quizzes_taken = total_quizzes_taken + $1,
		     total_score = total_score + $2,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		p.QuizzesTaken, p.ScoreDelta, p.UserID,
	)
	return err
}

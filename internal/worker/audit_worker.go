package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quizdeck/quizdeck-backend/internal/config"
	"github.com/quizdeck/quizdeck-backend/internal/model"
	"github.com/quizdeck/quizdeck-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	AuditBatchSize    = 100
	AuditBatchTimeout = 3 * time.Second
	AuditPollTimeout  = 1 * time.Second
)

// AuditWorker drains the audit queue and writes entries in batches. Audit
// logging is best-effort: a payload that fails twice is dropped with an
// error log rather than requeued forever.
type AuditWorker struct {
	repo *repository.AuditRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewAuditWorker(repo *repository.AuditRepository, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "audit_worker").Logger(),
	}
}

type auditPayload struct {
	UserID     int             `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Details    json.RawMessage `json:"details"`
	Requeued   bool            `json:"requeued,omitempty"`
}

func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	batch := make([]*auditPayload, 0, AuditBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AuditBatchSize || time.Since(lastFlush) >= AuditBatchTimeout) {

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
			item, err := w.rdb.BLPop(ctx, AuditPollTimeout, config.WorkerKey.AuditLogQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p auditPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *AuditWorker) flushSafe(ctx context.Context, batch []*auditPayload) {
	if len(batch) == 0 {
		return
	}

	entries := make([]model.AuditEntry, len(batch))
	for i, p := range batch {
		entry := model.AuditEntry{
			Action:     p.Action,
			EntityType: p.EntityType,
			EntityID:   p.EntityID,
			Details:    p.Details,
		}
		if p.UserID != 0 {
			uid := p.UserID
			entry.UserID = &uid
		}
		entries[i] = entry
	}

	if err := w.repo.InsertBatch(ctx, entries); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("audit batch insert failed")

		for _, p := range batch {
			if p.Requeued {
				w.log.Error().Str("action", p.Action).Msg("Dropping audit entry after retry")
				continue
			}
			p.Requeued = true
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.AuditLogQueue, raw)
		}
	}
}

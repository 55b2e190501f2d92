package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/krs-backend/internal/config"
)

// AuditWorker consumes the enrollment audit queue and persists one audit
// row per enrollment mutation to PostgreSQL.
type AuditWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "audit_worker").Logger(),
	}
}

type auditPayload struct {
	Action     string    `json:"action"`
	StudentID  int       `json:"student_id"`
	CourseID   int       `json:"course_id"`
	CourseCode string    `json:"course_code"`
	At         time.Time `json:"at"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AuditWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistEnrollmentAuditQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload auditPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAudit(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Int("student_id", payload.StudentID).
			Str("course_code", payload.CourseCode).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistEnrollmentAuditQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AuditWorker) persistAudit(ctx context.Context, p *auditPayload) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO enrollment_audit (student_id, course_id, action, occurred_at)
		 VALUES ($1, $2, $3, $4)`,
		p.StudentID, p.CourseID, p.Action, p.At)
	return err
}

// drain persists everything left in the queue without blocking, used
// during graceful shutdown.
func (w *AuditWorker) drain(ctx context.Context) {
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistEnrollmentAuditQueue).Result()
		if err != nil {
			return
		}

		var payload auditPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			continue
		}
		if err := w.persistAudit(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			return
		}
	}
}

package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examlet/examlet-backend/internal/config"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	LeaderboardBatchSize    = 50
	LeaderboardBatchTimeout = 2 * time.Second
	LeaderboardPollTimeout  = 1 * time.Second
)

// LeaderboardWorker consumes scored submissions off the Redis queue and folds
// them into the durable leaderboard table plus the per-test Redis sorted set.
type LeaderboardWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewLeaderboardWorker creates a new LeaderboardWorker.
func NewLeaderboardWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *LeaderboardWorker {
	return &LeaderboardWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "leaderboard_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *LeaderboardWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LeaderboardWorker started")

	batch := make([]*model.LeaderboardJob, 0, LeaderboardBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= LeaderboardBatchSize || time.Since(lastFlush) >= LeaderboardBatchTimeout) {

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
			item, err := w.rdb.BLPop(ctx, LeaderboardPollTimeout, config.WorkerKey.PersistLeaderboardQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.LeaderboardJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

// ----------------------------------------------------------------
// Batch Upsert Wrapper
// ----------------------------------------------------------------

func (w *LeaderboardWorker) flushSafe(ctx context.Context, batch []*model.LeaderboardJob) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpsertEntries(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk leaderboard upsert failed, using fallback")

		for _, job := range batch {
			if err := w.persistSingle(ctx, job); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(job)
				w.rdb.RPush(ctx, config.WorkerKey.PersistLeaderboardQueue, raw)
				continue
			}
			w.mirrorToRedis(ctx, []*model.LeaderboardJob{job})
		}
		return
	}

	// After durable writes → mirror best scores into the sorted sets.
	w.mirrorToRedis(ctx, batch)
}

// ----------------------------------------------------------------
// BULK PostgreSQL UPSERT using UNNEST + alias
// ----------------------------------------------------------------

func (w *LeaderboardWorker) bulkUpsertEntries(ctx context.Context, batch []*model.LeaderboardJob) error {
	// Merge duplicate (test, student) pairs first: INSERT ... ON CONFLICT
	// cannot touch the same row twice within one statement.
	type key struct {
		testID    uuid.UUID
		studentID uuid.UUID
	}
	type agg struct {
		best     int
		attempts int
	}

	merged := make(map[key]*agg, len(batch))
	order := make([]key, 0, len(batch))
	for _, job := range batch {
		k := key{job.TestID, job.StudentID}
		a, ok := merged[k]
		if !ok {
			merged[k] = &agg{best: job.Score, attempts: 1}
			order = append(order, k)
			continue
		}
		if job.Score > a.best {
			a.best = job.Score
		}
		a.attempts++
	}

	n := len(order)
	testIDs := make([]uuid.UUID, 0, n)
	studentIDs := make([]uuid.UUID, 0, n)
	scores := make([]int, 0, n)
	attempts := make([]int, 0, n)

	for _, k := range order {
		testIDs = append(testIDs, k.testID)
		studentIDs = append(studentIDs, k.studentID)
		scores = append(scores, merged[k].best)
		attempts = append(attempts, merged[k].attempts)
	}

	query := `
		INSERT INTO leaderboard_entries (test_id, student_id, best_score, attempts, updated_at)
		SELECT u.test_id, u.student_id, u.score, u.attempts, NOW()
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::int[],
			$4::int[]
		) AS u (test_id, student_id, score, attempts)
		ON CONFLICT (test_id, student_id) DO UPDATE
		SET best_score = GREATEST(leaderboard_entries.best_score, EXCLUDED.best_score),
		    attempts   = leaderboard_entries.attempts + EXCLUDED.attempts,
		    updated_at = NOW()
	`

	_, err := w.pool.Exec(ctx, query, testIDs, studentIDs, scores, attempts)
	return err
}

// ----------------------------------------------------------------
// Redis sorted-set mirror (score only moves up)
// ----------------------------------------------------------------

func (w *LeaderboardWorker) mirrorToRedis(ctx context.Context, batch []*model.LeaderboardJob) {
	pipe := w.rdb.Pipeline()

	for _, job := range batch {
		key := config.CacheKey.TestLeaderboardKey(job.TestID.String())
		pipe.ZAddGT(ctx, key, redis.Z{
			Score:  float64(job.Score),
			Member: job.StudentID.String(),
		})
	}

	_, _ = pipe.Exec(ctx)
}

// ----------------------------------------------------------------
// FALLBACK single upsert
// ----------------------------------------------------------------

func (w *LeaderboardWorker) persistSingle(ctx context.Context, job *model.LeaderboardJob) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO leaderboard_entries (test_id, student_id, best_score, attempts, updated_at)
		 VALUES ($1, $2, $3, 1, NOW())
		 ON CONFLICT (test_id, student_id) DO UPDATE
		 SET best_score = GREATEST(leaderboard_entries.best_score, EXCLUDED.best_score),
		     attempts   = leaderboard_entries.attempts + 1,
		     updated_at = NOW()`,
		job.TestID, job.StudentID, job.Score,
	)
	return err
}

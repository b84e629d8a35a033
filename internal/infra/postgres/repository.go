package postgres

import (
	"context"
	"fmt"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO cut_jobs (
			id, user_id, video_key, report_key, keyframes_key, status,
			frame_count, cut_count, file_size, video_duration, attempt,
			max_attempts, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ReportKey, job.KeyframesKey,
		string(job.Status), job.FrameCount, job.CutCount, job.FileSize,
		job.VideoDuration, job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE cut_jobs SET
			status=$2, report_key=$3, keyframes_key=$4, frame_count=$5,
			cut_count=$6, video_duration=$7, attempt=$8, error_message=$9,
			updated_at=$10, completed_at=$11
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ReportKey, job.KeyframesKey,
		job.FrameCount, job.CutCount, job.VideoDuration, job.Attempt,
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, video_key, report_key, keyframes_key, status,
			frame_count, cut_count, file_size, video_duration, attempt,
			max_attempts, error_message, created_at, updated_at, completed_at
		FROM cut_jobs WHERE id=$1`

	job := &entity.Job{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ReportKey, &job.KeyframesKey,
		&status, &job.FrameCount, &job.CutCount, &job.FileSize,
		&job.VideoDuration, &job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}

// SaveCuts replaces the stored cuts of a job. Retries of the same job
// therefore never leave stale rows behind.
func (r *JobRepository) SaveCuts(ctx context.Context, jobID uuid.UUID, cuts []entity.Cut) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save cuts: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scene_cuts WHERE job_id=$1`, jobID); err != nil {
		return fmt.Errorf("clear cuts: %w", err)
	}

	rows := make([][]any, 0, len(cuts))
	for _, c := range cuts {
		rows = append(rows, []any{jobID, c.FrameIndex, c.Timestamp, c.Similarity})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"scene_cuts"},
		[]string{"job_id", "frame_index", "timestamp_seconds", "similarity"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy cuts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save cuts: %w", err)
	}
	return nil
}

// ListCuts returns the stored cuts of a job ordered by frame index.
func (r *JobRepository) ListCuts(ctx context.Context, jobID uuid.UUID) ([]entity.Cut, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT frame_index, timestamp_seconds, similarity
		FROM scene_cuts WHERE job_id=$1 ORDER BY frame_index`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list cuts: %w", err)
	}
	cuts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Cut, error) {
		var c entity.Cut
		err := row.Scan(&c.FrameIndex, &c.Timestamp, &c.Similarity)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan cuts: %w", err)
	}
	return cuts, nil
}

package port

import (
	"context"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	SaveCuts(ctx context.Context, jobID uuid.UUID, cuts []entity.Cut) error
}

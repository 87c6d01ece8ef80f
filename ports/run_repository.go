package ports

import (
	"context"

	"goperm/domain/core"
	"goperm/domain/model"
)

// RunRepository persists completed permutation runs
type RunRepository interface {
	Save(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id core.RunID) (*model.Report, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Report, error)
}

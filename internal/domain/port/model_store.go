package port

import (
	"context"

	"vision-nodes/internal/domain/entity"
)

// ModelStore разрешает источник модели в файлы на диске
type ModelStore interface {
	// Resolve скачивает модель по URL (online) или находит встроенную (local)
	Resolve(ctx context.Context, src entity.ModelSource) (ModelFiles, error)
}

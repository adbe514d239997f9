package vision

import (
	"context"
	"errors"

	"vision-nodes/internal/domain/port"
)

// ErrBackendDisabled возвращается, если бинарник собран без нужного бэкенда.
var ErrBackendDisabled = errors.New("gocv build tag is not enabled")

// PredictorLoader загружает произвольные модели для предиктора.
type PredictorLoader interface {
	LoadPredictor(ctx context.Context, model port.ModelFiles) (port.Predictor, error)
}

// Loader загружает модели OpenCV DNN; предикторы делегируются отдельному загрузчику.
type Loader struct {
	predictors PredictorLoader
}

// NewLoader создаёт загрузчик моделей.
func NewLoader(predictors PredictorLoader) *Loader {
	return &Loader{predictors: predictors}
}

// LoadPredictor загружает модель предиктора.
func (l *Loader) LoadPredictor(ctx context.Context, model port.ModelFiles) (port.Predictor, error) {
	if l.predictors == nil {
		return nil, errors.New("predictor backend is not configured")
	}
	return l.predictors.LoadPredictor(ctx, model)
}

var _ port.ModelLoader = (*Loader)(nil)

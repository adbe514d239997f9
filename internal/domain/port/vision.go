package port

import (
	"context"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/tensor"
)

// Imager интерфейс внешней библиотеки обработки изображений
type Imager interface {
	// Decode декодирует JPEG/PNG/... в тензор [высота, ширина, каналы] со значениями 0..255
	Decode(data []byte, channels int) (*tensor.Tensor, error)

	// ResizeBilinear масштабирует тензор [h, w, c] до height x width
	ResizeBilinear(img *tensor.Tensor, height, width int) (*tensor.Tensor, error)
}

// Model общая часть всех загруженных моделей
type Model interface {
	// Close освобождает нативные ресурсы модели
	Close() error
}

// Classifier классификатор изображений
type Classifier interface {
	Model
	// Classify возвращает topK классов с вероятностями
	Classify(ctx context.Context, img *tensor.Tensor, topK int) ([]entity.Classification, error)
}

// Detector детектор объектов
type Detector interface {
	Model
	// Detect возвращает не более maxDetections найденных объектов
	Detect(ctx context.Context, img *tensor.Tensor, maxDetections int) ([]entity.Detection, error)
}

// PoseEstimator оценщик поз
type PoseEstimator interface {
	Model
	// EstimatePoses возвращает найденные позы
	EstimatePoses(ctx context.Context, img *tensor.Tensor, opts entity.PoseOptions) ([]entity.Pose, error)
}

// Predictor произвольная модель с одним входом и одним выходом
type Predictor interface {
	Model
	// InputShape возвращает объявленную форму входа; размерность батча может быть -1
	InputShape() []int
	// Predict запускает модель; вызывающий владеет выходным тензором
	Predict(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error)
}

// ModelLoader загружает модели из локального файла
type ModelLoader interface {
	LoadClassifier(ctx context.Context, model ModelFiles) (Classifier, error)
	LoadDetector(ctx context.Context, model ModelFiles) (Detector, error)
	LoadPoseEstimator(ctx context.Context, model ModelFiles) (PoseEstimator, error)
	LoadPredictor(ctx context.Context, model ModelFiles) (Predictor, error)
}

// ModelFiles файлы модели на локальном диске
type ModelFiles struct {
	ModelPath  string // веса модели
	ConfigPath string // описание сети, если формат его требует
	LabelsPath string // имена классов, по одному на строку
}

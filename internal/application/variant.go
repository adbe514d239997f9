package app

import (
	"context"
	"fmt"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/tensor"
)

// State изменяемое состояние адаптера. Принадлежит одному адаптеру
// и передаётся в операции варианта явно.
type State struct {
	Ready      bool
	Model      port.Model
	InputShape InputShape // только для предиктора
}

// Variant набор возможностей конкретного типа модели.
type Variant interface {
	Kind() entity.AdapterKind
	// Load загружает модель и возвращает её вместе с формой входа.
	Load(ctx context.Context, loader port.ModelLoader, files port.ModelFiles) (port.Model, InputShape, error)
	// Preprocess декодирует изображение в тензор, который примет модель.
	Preprocess(scope *tensor.Scope, pre *Preprocessor, st State, image []byte) (*tensor.Tensor, error)
	// Infer вызывает модель.
	Infer(ctx context.Context, scope *tensor.Scope, st State, input *tensor.Tensor, req InferenceRequest) (entity.RawResult, error)
	// Normalize фильтрует и приводит сырой результат к выходному контракту.
	Normalize(raw entity.RawResult, req InferenceRequest) entity.NormalizedResult
}

// VariantFor возвращает вариант для типа адаптера.
func VariantFor(kind entity.AdapterKind) (Variant, error) {
	switch kind {
	case entity.KindClassifier:
		return classifierVariant{}, nil
	case entity.KindDetector:
		return detectorVariant{}, nil
	case entity.KindPose:
		return poseVariant{}, nil
	case entity.KindPredictor:
		return predictorVariant{}, nil
	default:
		return nil, &entity.ConfigError{Status: entity.Status("unknown adapter kind"), Reason: fmt.Sprintf("unsupported adapter kind %q", kind)}
	}
}

func modelAs[T port.Model](st State) (T, error) {
	m, ok := st.Model.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: loaded model has unexpected type %T", entity.ErrInference, st.Model)
	}
	return m, nil
}

// classifierVariant классификатор изображений (MobileNet).
type classifierVariant struct{}

func (classifierVariant) Kind() entity.AdapterKind { return entity.KindClassifier }

func (classifierVariant) Load(ctx context.Context, loader port.ModelLoader, files port.ModelFiles) (port.Model, InputShape, error) {
	m, err := loader.LoadClassifier(ctx, files)
	return m, InputShape{}, err
}

func (classifierVariant) Preprocess(scope *tensor.Scope, pre *Preprocessor, _ State, image []byte) (*tensor.Tensor, error) {
	return pre.Decode(scope, image, 3)
}

func (classifierVariant) Infer(ctx context.Context, _ *tensor.Scope, st State, input *tensor.Tensor, req InferenceRequest) (entity.RawResult, error) {
	model, err := modelAs[port.Classifier](st)
	if err != nil {
		return entity.RawResult{}, err
	}
	classes, err := model.Classify(ctx, input, req.MaxDetections)
	if err != nil {
		return entity.RawResult{}, err
	}
	return entity.RawResult{Classifications: classes}, nil
}

func (classifierVariant) Normalize(raw entity.RawResult, req InferenceRequest) entity.NormalizedResult {
	return entity.NormalizedResult{
		Results: FilterResults(RemapClassifications(raw.Classifications), req.Threshold),
	}
}

// detectorVariant детектор объектов (COCO-SSD).
type detectorVariant struct{}

func (detectorVariant) Kind() entity.AdapterKind { return entity.KindDetector }

func (detectorVariant) Load(ctx context.Context, loader port.ModelLoader, files port.ModelFiles) (port.Model, InputShape, error) {
	m, err := loader.LoadDetector(ctx, files)
	return m, InputShape{}, err
}

func (detectorVariant) Preprocess(scope *tensor.Scope, pre *Preprocessor, _ State, image []byte) (*tensor.Tensor, error) {
	return pre.Decode(scope, image, 3)
}

func (detectorVariant) Infer(ctx context.Context, _ *tensor.Scope, st State, input *tensor.Tensor, req InferenceRequest) (entity.RawResult, error) {
	model, err := modelAs[port.Detector](st)
	if err != nil {
		return entity.RawResult{}, err
	}
	detections, err := model.Detect(ctx, input, req.MaxDetections)
	if err != nil {
		return entity.RawResult{}, err
	}
	return entity.RawResult{Detections: detections}, nil
}

func (detectorVariant) Normalize(raw entity.RawResult, req InferenceRequest) entity.NormalizedResult {
	filtered := FilterResults(DetectionResults(raw.Detections), req.Threshold)
	return entity.NormalizedResult{
		Results: filtered,
		Classes: CountClasses(filtered),
	}
}

// poseVariant оценка поз (PoseNet).
type poseVariant struct{}

// poseNMSRadius радиус подавления соседних поз в пикселях.
const poseNMSRadius = 20

func (poseVariant) Kind() entity.AdapterKind { return entity.KindPose }

func (poseVariant) Load(ctx context.Context, loader port.ModelLoader, files port.ModelFiles) (port.Model, InputShape, error) {
	m, err := loader.LoadPoseEstimator(ctx, files)
	return m, InputShape{}, err
}

func (poseVariant) Preprocess(scope *tensor.Scope, pre *Preprocessor, _ State, image []byte) (*tensor.Tensor, error) {
	return pre.Decode(scope, image, 3)
}

func (poseVariant) Infer(ctx context.Context, _ *tensor.Scope, st State, input *tensor.Tensor, req InferenceRequest) (entity.RawResult, error) {
	model, err := modelAs[port.PoseEstimator](st)
	if err != nil {
		return entity.RawResult{}, err
	}
	poses, err := model.EstimatePoses(ctx, input, entity.PoseOptions{
		FlipHorizontal: false,
		MaxDetections:  req.MaxDetections,
		ScoreThreshold: float64(req.Threshold) / 100,
		NMSRadius:      poseNMSRadius,
	})
	if err != nil {
		return entity.RawResult{}, err
	}
	return entity.RawResult{Poses: poses}, nil
}

func (poseVariant) Normalize(raw entity.RawResult, req InferenceRequest) entity.NormalizedResult {
	filtered := FilterResults(PoseResults(raw.Poses), req.Threshold)
	return entity.NormalizedResult{
		Results: filtered,
		Classes: CountPoses(filtered),
	}
}

// predictorVariant произвольная модель, отдаёт сырой выход.
type predictorVariant struct{}

func (predictorVariant) Kind() entity.AdapterKind { return entity.KindPredictor }

func (predictorVariant) Load(ctx context.Context, loader port.ModelLoader, files port.ModelFiles) (port.Model, InputShape, error) {
	m, err := loader.LoadPredictor(ctx, files)
	if err != nil {
		return nil, InputShape{}, err
	}
	shape, err := DeriveInputShape(m.InputShape())
	if err != nil {
		_ = m.Close()
		return nil, InputShape{}, err
	}
	if err := warmUp(ctx, m, shape); err != nil {
		_ = m.Close()
		return nil, InputShape{}, err
	}
	return m, shape, nil
}

// warmUp прогоняет нулевой тензор, чтобы модель инициализировалась и
// подтвердила форму входа.
func warmUp(ctx context.Context, m port.Predictor, shape InputShape) error {
	scope := tensor.NewScope()
	defer scope.Close()

	zeros, err := tensor.Zeros(shape.Dims)
	if err != nil {
		return fmt.Errorf("%w: warm-up input: %v", entity.ErrModelLoad, err)
	}
	tensor.Track(scope, zeros)

	out, err := m.Predict(ctx, zeros)
	if err != nil {
		return fmt.Errorf("%w: warm-up inference: %v", entity.ErrModelLoad, err)
	}
	tensor.Track(scope, out)
	return nil
}

func (predictorVariant) Preprocess(scope *tensor.Scope, pre *Preprocessor, st State, image []byte) (*tensor.Tensor, error) {
	img, err := pre.Decode(scope, image, st.InputShape.Channels())
	if err != nil {
		return nil, err
	}
	return pre.Adapt(scope, img, st.InputShape)
}

func (predictorVariant) Infer(ctx context.Context, scope *tensor.Scope, st State, input *tensor.Tensor, _ InferenceRequest) (entity.RawResult, error) {
	model, err := modelAs[port.Predictor](st)
	if err != nil {
		return entity.RawResult{}, err
	}
	out, err := model.Predict(ctx, input)
	if err != nil {
		return entity.RawResult{}, err
	}
	tensor.Track(scope, out)

	values := make([]float32, out.Len())
	copy(values, out.Data())
	return entity.RawResult{Values: values}, nil
}

func (predictorVariant) Normalize(raw entity.RawResult, _ InferenceRequest) entity.NormalizedResult {
	return entity.NormalizedResult{
		Values: raw.Values,
		ArgMax: ArgMax(raw.Values),
	}
}

// Package onnx запускает произвольные ONNX-модели через onnxruntime.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/tensor"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment инициализирует onnxruntime один раз на процесс.
func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return envErr
}

// Loader загружает ONNX-модели для предиктора.
type Loader struct {
	libPath string
}

// NewLoader создаёт загрузчик. Пустой libPath означает системную libonnxruntime.
func NewLoader(libPath string) *Loader {
	return &Loader{libPath: libPath}
}

// LoadPredictor открывает сессию и читает объявленную форму первого входа.
func (l *Loader) LoadPredictor(ctx context.Context, model port.ModelFiles) (port.Predictor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := initEnvironment(l.libPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(model.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("model has no inputs or outputs")
	}
	if inputs[0].DataType != ort.TensorElementDataTypeFloat {
		return nil, fmt.Errorf("model input %q has element type %v, want float32", inputs[0].Name, inputs[0].DataType)
	}

	session, err := ort.NewDynamicAdvancedSession(model.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	shape := make([]int, len(inputs[0].Dimensions))
	for i, d := range inputs[0].Dimensions {
		shape[i] = int(d)
	}

	return &Predictor{
		session:    session,
		inputShape: shape,
	}, nil
}

// Predictor ONNX-сессия с одним входом и одним выходом.
type Predictor struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputShape []int
}

// InputShape возвращает объявленную форму входа (-1 для динамических измерений).
func (p *Predictor) InputShape() []int {
	return append([]int(nil), p.inputShape...)
}

// Predict запускает модель. Нативные тензоры освобождаются до возврата.
func (p *Predictor) Predict(ctx context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims := input.Shape()
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}

	in, err := ort.NewTensor(ort.NewShape(shape...), input.Data())
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}

	p.mu.Lock()
	err = p.session.Run([]ort.Value{in}, outputs)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if outputs[0] == nil {
		return nil, errors.New("model produced no output")
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unsupported output type %T", outputs[0])
	}
	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())

	outShape := make([]int, len(out.GetShape()))
	for i, d := range out.GetShape() {
		outShape[i] = int(d)
	}
	return tensor.New(outShape, data)
}

// Close закрывает сессию.
func (p *Predictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}

package app

import (
	"fmt"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/tensor"
)

// pixelOffset переводит значения 0..255 в -1..1: (x - 127.5) / 127.5.
const pixelOffset = 127.5

// InputShape форма входа модели с фиксированным батчем 1.
type InputShape struct {
	Dims          []int
	ChannelsFirst bool // NCHW вместо NHWC
}

// DeriveInputShape строит форму входа из объявленной моделью: батч
// заменяется на 1, остальные измерения берутся как есть.
func DeriveInputShape(declared []int) (InputShape, error) {
	if len(declared) != 4 {
		return InputShape{}, fmt.Errorf("%w: expected rank-4 image input, got shape %v", entity.ErrModelLoad, declared)
	}
	dims := append([]int{1}, declared[1:]...)
	for _, d := range dims[1:] {
		if d <= 0 {
			return InputShape{}, fmt.Errorf("%w: dynamic dimension in input shape %v", entity.ErrModelLoad, declared)
		}
	}
	switch {
	case isChannelCount(dims[3]):
		return InputShape{Dims: dims}, nil
	case isChannelCount(dims[1]):
		return InputShape{Dims: dims, ChannelsFirst: true}, nil
	default:
		return InputShape{}, fmt.Errorf("%w: cannot find channel dimension in input shape %v", entity.ErrModelLoad, declared)
	}
}

func isChannelCount(n int) bool {
	return n == 1 || n == 3 || n == 4
}

// Height возвращает высоту входа.
func (s InputShape) Height() int {
	if s.ChannelsFirst {
		return s.Dims[2]
	}
	return s.Dims[1]
}

// Width возвращает ширину входа.
func (s InputShape) Width() int {
	if s.ChannelsFirst {
		return s.Dims[3]
	}
	return s.Dims[2]
}

// Channels возвращает число каналов.
func (s InputShape) Channels() int {
	if s.ChannelsFirst {
		return s.Dims[1]
	}
	return s.Dims[3]
}

// Preprocessor превращает байты изображения в тензоры нужной формы.
// Все промежуточные тензоры регистрируются в scope вызывающего.
type Preprocessor struct {
	imager port.Imager
}

// NewPreprocessor создаёт препроцессор поверх библиотеки изображений.
func NewPreprocessor(imager port.Imager) *Preprocessor {
	return &Preprocessor{imager: imager}
}

// Decode декодирует изображение в тензор [h, w, channels].
func (p *Preprocessor) Decode(scope *tensor.Scope, data []byte, channels int) (*tensor.Tensor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image buffer", entity.ErrDecode)
	}
	img, err := p.imager.Decode(data, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	return tensor.Track(scope, img), nil
}

// Adapt масштабирует, нормализует и приводит изображение к форме входа модели.
func (p *Preprocessor) Adapt(scope *tensor.Scope, img *tensor.Tensor, shape InputShape) (*tensor.Tensor, error) {
	resized, err := p.imager.ResizeBilinear(img, shape.Height(), shape.Width())
	if err != nil {
		return nil, fmt.Errorf("%w: resize: %v", entity.ErrDecode, err)
	}
	tensor.Track(scope, resized)

	normalized, err := resized.Map(func(v float32) float32 {
		return (v - pixelOffset) / pixelOffset
	})
	if err != nil {
		return nil, fmt.Errorf("%w: normalize: %v", entity.ErrDecode, err)
	}
	tensor.Track(scope, normalized)

	if shape.ChannelsFirst {
		normalized, err = toChannelsFirst(normalized)
		if err != nil {
			return nil, fmt.Errorf("%w: transpose: %v", entity.ErrDecode, err)
		}
		tensor.Track(scope, normalized)
	}

	batched, err := normalized.Reshape(shape.Dims)
	if err != nil {
		return nil, fmt.Errorf("%w: reshape to %v: %v", entity.ErrDecode, shape.Dims, err)
	}
	tensor.Track(scope, batched)

	if !tensor.EqualShape(batched.Shape(), shape.Dims) {
		return nil, fmt.Errorf("%w: adapted shape %v, model expects %v", entity.ErrDecode, batched.Shape(), shape.Dims)
	}
	return batched, nil
}

// toChannelsFirst переставляет [h, w, c] в [c, h, w].
func toChannelsFirst(img *tensor.Tensor) (*tensor.Tensor, error) {
	shape := img.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("expected [h, w, c] tensor, got %v", shape)
	}
	h, w, c := shape[0], shape[1], shape[2]
	src := img.Data()
	dst := make([]float32, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				dst[ch*h*w+y*w+x] = src[(y*w+x)*c+ch]
			}
		}
	}
	return tensor.New([]int{c, h, w}, dst)
}

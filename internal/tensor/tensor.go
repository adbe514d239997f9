// Package tensor содержит минимальный float32-тензор и область владения
// (Scope), через которую освобождаются все промежуточные буферы запроса.
package tensor

import (
	"errors"
	"fmt"
)

// ErrClosed возвращается при обращении к уже освобождённому тензору.
var ErrClosed = errors.New("tensor is released")

// Tensor плотный массив float32 в порядке row-major.
// Тензор принадлежит вызову, который его создал, до вызова Close.
type Tensor struct {
	shape  []int
	data   []float32
	closed bool
}

// New создаёт тензор поверх data. Длина data должна совпадать с размером формы.
func New(shape []int, data []float32) (*Tensor, error) {
	size, err := Size(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("tensor data length %d does not match shape %v (%d)", len(data), shape, size)
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// Zeros создаёт тензор, заполненный нулями.
func Zeros(shape []int) (*Tensor, error) {
	size, err := Size(shape)
	if err != nil {
		return nil, err
	}
	return &Tensor{shape: append([]int(nil), shape...), data: make([]float32, size)}, nil
}

// Shape возвращает копию формы.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Rank возвращает число измерений.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Data возвращает данные тензора без копирования.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Len возвращает число элементов.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Reshape возвращает новый тензор с копией данных и другой формой.
func (t *Tensor) Reshape(shape []int) (*Tensor, error) {
	if t.closed {
		return nil, ErrClosed
	}
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return New(shape, data)
}

// Map возвращает новый тензор той же формы с fn, применённой к каждому элементу.
func (t *Tensor) Map(fn func(float32) float32) (*Tensor, error) {
	if t.closed {
		return nil, ErrClosed
	}
	data := make([]float32, len(t.data))
	for i, v := range t.data {
		data[i] = fn(v)
	}
	return New(t.shape, data)
}

// Close освобождает буфер. Повторный вызов безопасен.
func (t *Tensor) Close() error {
	if t == nil || t.closed {
		return nil
	}
	t.closed = true
	t.data = nil
	return nil
}

// Closed сообщает, был ли тензор освобождён.
func (t *Tensor) Closed() bool {
	return t.closed
}

// Size возвращает число элементов для формы.
func Size(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.New("tensor shape is empty")
	}
	size := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, fmt.Errorf("invalid tensor dimension %d in shape %v", dim, shape)
		}
		size *= dim
	}
	return size, nil
}

// EqualShape сравнивает две формы поэлементно.
func EqualShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesLength(t *testing.T) {
	_, err := New([]int{2, 2}, []float32{1, 2, 3})
	require.Error(t, err)

	tt, err := New([]int{1, 3}, []float32{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, tt.Shape())
	require.Equal(t, 3, tt.Len())
	require.Equal(t, 2, tt.Rank())
}

func TestZeros(t *testing.T) {
	tt, err := Zeros([]int{1, 2, 2, 3})
	require.NoError(t, err)
	require.Len(t, tt.Data(), 12)
	for _, v := range tt.Data() {
		require.Zero(t, v)
	}

	_, err = Zeros([]int{1, 0, 3})
	require.Error(t, err)
}

func TestReshapeAndMap_CopyData(t *testing.T) {
	src, err := New([]int{4}, []float32{0, 127.5, 255, 10})
	require.NoError(t, err)

	reshaped, err := src.Reshape([]int{1, 2, 2})
	require.NoError(t, err)
	reshaped.Data()[0] = 42
	require.Equal(t, float32(0), src.Data()[0])

	mapped, err := src.Map(func(v float32) float32 { return v * 2 })
	require.NoError(t, err)
	require.Equal(t, []float32{0, 255, 510, 20}, mapped.Data())

	_, err = src.Reshape([]int{3})
	require.Error(t, err)
}

func TestClose_ReleasesAndIsIdempotent(t *testing.T) {
	tt, err := Zeros([]int{2})
	require.NoError(t, err)
	require.NoError(t, tt.Close())
	require.True(t, tt.Closed())
	require.Nil(t, tt.Data())
	require.NoError(t, tt.Close())

	_, err = tt.Reshape([]int{2})
	require.ErrorIs(t, err, ErrClosed)
}

func TestScope_ClosesInReverseOrder(t *testing.T) {
	var order []int
	scope := NewScope()
	for i := 0; i < 3; i++ {
		i := i
		scope.Add(CloserFunc(func() error {
			order = append(order, i)
			return nil
		}))
	}
	require.Equal(t, 3, scope.Len())
	require.NoError(t, scope.Close())
	require.Equal(t, []int{2, 1, 0}, order)
	require.Zero(t, scope.Len())
}

func TestScope_JoinsErrorsAndClosesLateAdds(t *testing.T) {
	boom := errors.New("boom")
	scope := NewScope()
	scope.Add(CloserFunc(func() error { return boom }))
	tt := Track(scope, mustZeros(t, []int{3}))

	err := scope.Close()
	require.ErrorIs(t, err, boom)
	require.True(t, tt.Closed())

	late := mustZeros(t, []int{1})
	scope.Add(late)
	require.True(t, late.Closed())
}

func TestEqualShape(t *testing.T) {
	require.True(t, EqualShape([]int{1, 224, 224, 3}, []int{1, 224, 224, 3}))
	require.False(t, EqualShape([]int{1, 224, 224}, []int{1, 224, 224, 3}))
	require.False(t, EqualShape([]int{1, 224, 224, 1}, []int{1, 224, 224, 3}))
}

func mustZeros(t *testing.T, shape []int) *Tensor {
	t.Helper()
	tt, err := Zeros(shape)
	require.NoError(t, err)
	return tt
}

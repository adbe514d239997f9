//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-nodes/internal/domain/port"
)

func TestStubLoader_DNNDisabled(t *testing.T) {
	l := NewLoader(nil)
	ctx := context.Background()

	_, err := l.LoadClassifier(ctx, port.ModelFiles{})
	require.ErrorIs(t, err, ErrBackendDisabled)
	_, err = l.LoadDetector(ctx, port.ModelFiles{})
	require.ErrorIs(t, err, ErrBackendDisabled)
	_, err = l.LoadPoseEstimator(ctx, port.ModelFiles{})
	require.ErrorIs(t, err, ErrBackendDisabled)

	_, ok := DefaultImager().(*GoImager)
	assert.True(t, ok)
}

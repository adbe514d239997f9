//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"vision-nodes/internal/domain/port"
)

// DefaultImager возвращает imager на чистом Go, если OpenCV не подключён.
func DefaultImager() port.Imager {
	return NewGoImager()
}

// LoadClassifier возвращает ошибку, если сборка без тега gocv.
func (l *Loader) LoadClassifier(ctx context.Context, model port.ModelFiles) (port.Classifier, error) {
	_ = ctx
	_ = model
	return nil, ErrBackendDisabled
}

// LoadDetector возвращает ошибку, если сборка без тега gocv.
func (l *Loader) LoadDetector(ctx context.Context, model port.ModelFiles) (port.Detector, error) {
	_ = ctx
	_ = model
	return nil, ErrBackendDisabled
}

// LoadPoseEstimator возвращает ошибку, если сборка без тега gocv.
func (l *Loader) LoadPoseEstimator(ctx context.Context, model port.ModelFiles) (port.PoseEstimator, error) {
	_ = ctx
	_ = model
	return nil, ErrBackendDisabled
}

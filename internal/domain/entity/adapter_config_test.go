package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAdapterConfig_Defaults(t *testing.T) {
	cfg := NewAdapterConfig(KindDetector)
	require.Equal(t, ModeLocal, cfg.Mode)
	require.Equal(t, "coco-ssd", cfg.LocalModel)
	require.Equal(t, 50, cfg.Threshold)
	require.Equal(t, 20, cfg.MaxDetections)
	require.Equal(t, DefaultInferTimeout, cfg.InferTimeout)
	require.NoError(t, cfg.Validate())

	pose := NewAdapterConfig(KindPose)
	require.Equal(t, 5, pose.MaxDetections)
	require.Equal(t, "posenet", pose.LocalModel)
}

func TestAdapterConfig_ModeFromURL(t *testing.T) {
	cfg := AdapterConfig{Kind: KindClassifier, ModelURL: " https://example.com/model.onnx "}.WithDefaults()
	require.Equal(t, ModeOnline, cfg.Mode)
	require.Equal(t, "https://example.com/model.onnx", cfg.ModelURL)

	src := cfg.Source()
	require.Equal(t, "https://example.com/model.onnx", src.URL)
	require.Empty(t, src.LocalModel)
}

func TestAdapterConfig_EmptyURLOnlineIsConfigError(t *testing.T) {
	cfg := NewAdapterConfig(KindPredictor)
	require.Equal(t, ModeOnline, cfg.Mode)

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfig)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, StatusSetURL, cfgErr.Status)
}

func TestAdapterConfig_LocalPredictorWithoutModel(t *testing.T) {
	cfg := AdapterConfig{Kind: KindPredictor, Mode: ModeLocal}.WithDefaults()
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrConfig)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, StatusModeNotSupported, cfgErr.Status)
}

func TestAdapterConfig_UnknownModeAndKind(t *testing.T) {
	cfg := AdapterConfig{Kind: KindDetector, Mode: "cloud"}.WithDefaults()
	require.ErrorIs(t, cfg.Validate(), ErrConfig)

	cfg = AdapterConfig{Kind: "segmenter", ModelURL: "x"}.WithDefaults()
	require.ErrorIs(t, cfg.Validate(), ErrConfig)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Pose ")
	require.NoError(t, err)
	require.Equal(t, KindPose, kind)

	_, err = ParseKind("nope")
	require.ErrorIs(t, err, ErrConfig)
}

func TestClampThreshold(t *testing.T) {
	require.Equal(t, 0, ClampThreshold(-1))
	require.Equal(t, 75, ClampThreshold(75))
	require.Equal(t, 100, ClampThreshold(101))
}

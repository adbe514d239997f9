package entity

import (
	"fmt"
	"strings"
	"time"
)

// AdapterKind тип модели, которую обслуживает адаптер.
type AdapterKind string

const (
	KindClassifier AdapterKind = "classifier" // классификация изображения (MobileNet)
	KindDetector   AdapterKind = "detector"   // детекция объектов (COCO-SSD)
	KindPose       AdapterKind = "pose"       // оценка позы (PoseNet)
	KindPredictor  AdapterKind = "predictor"  // произвольная модель, сырой выход
)

// Kinds перечисляет все поддерживаемые типы адаптеров.
var Kinds = []AdapterKind{KindClassifier, KindDetector, KindPose, KindPredictor}

// ParseKind разбирает строку в AdapterKind.
func ParseKind(value string) (AdapterKind, error) {
	kind := AdapterKind(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range Kinds {
		if k == kind {
			return kind, nil
		}
	}
	return "", &ConfigError{Status: Status("unknown adapter kind"), Reason: fmt.Sprintf("unsupported adapter kind %q", value)}
}

// Mode источник модели.
type Mode string

const (
	ModeOnline Mode = "online" // загрузка по URL
	ModeLocal  Mode = "local"  // модель из каталога моделей
)

const (
	DefaultThreshold    = 50
	DefaultInferTimeout = 30 * time.Second
)

// AdapterConfig неизменяемая конфигурация адаптера, получаемая при создании.
type AdapterConfig struct {
	Kind          AdapterKind
	Mode          Mode
	ModelURL      string
	LocalModel    string
	LabelsPath    string
	Threshold     int // порог в процентах 0..100
	MaxDetections int
	Passthru      bool
	InferTimeout  time.Duration
}

// NewAdapterConfig возвращает конфигурацию по умолчанию для типа адаптера.
func NewAdapterConfig(kind AdapterKind) AdapterConfig {
	return AdapterConfig{
		Kind:          kind,
		Threshold:     DefaultThreshold,
		MaxDetections: DefaultMaxDetections(kind),
		InferTimeout:  DefaultInferTimeout,
	}.WithDefaults()
}

// DefaultMaxDetections возвращает лимит результатов по умолчанию.
// Для классификатора это top-K.
func DefaultMaxDetections(kind AdapterKind) int {
	switch kind {
	case KindDetector:
		return 20
	case KindPose:
		return 5
	case KindClassifier:
		return 3
	default:
		return 0
	}
}

// DefaultLocalModel возвращает имя встроенной модели для типа адаптера.
func DefaultLocalModel(kind AdapterKind) string {
	switch kind {
	case KindClassifier:
		return "mobilenetv1"
	case KindDetector:
		return "coco-ssd"
	case KindPose:
		return "posenet"
	default:
		return ""
	}
}

// WithDefaults заполняет незаданные поля и приводит порог к диапазону 0..100.
func (c AdapterConfig) WithDefaults() AdapterConfig {
	c.ModelURL = strings.TrimSpace(c.ModelURL)
	c.LocalModel = strings.TrimSpace(c.LocalModel)
	if c.Mode == "" {
		// Предиктор без встроенной модели работает только по URL.
		if c.ModelURL != "" || c.Kind == KindPredictor {
			c.Mode = ModeOnline
		} else {
			c.Mode = ModeLocal
		}
	}
	if c.Mode == ModeLocal && c.LocalModel == "" {
		c.LocalModel = DefaultLocalModel(c.Kind)
	}
	if c.MaxDetections <= 0 {
		c.MaxDetections = DefaultMaxDetections(c.Kind)
	}
	if c.InferTimeout <= 0 {
		c.InferTimeout = DefaultInferTimeout
	}
	c.Threshold = ClampThreshold(c.Threshold)
	return c
}

// Validate проверяет, что ровно один источник модели разрешается.
func (c AdapterConfig) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	switch c.Mode {
	case ModeOnline:
		if c.ModelURL == "" {
			return &ConfigError{Status: StatusSetURL, Reason: "model URL is empty in online mode"}
		}
	case ModeLocal:
		if c.LocalModel == "" {
			return &ConfigError{Status: StatusModeNotSupported, Reason: fmt.Sprintf("no bundled model for %s adapter", c.Kind)}
		}
	default:
		return &ConfigError{Status: StatusModeNotSupported, Reason: fmt.Sprintf("unsupported mode %q", c.Mode)}
	}
	return nil
}

// Source возвращает описание источника модели.
func (c AdapterConfig) Source() ModelSource {
	src := ModelSource{Kind: c.Kind, Mode: c.Mode, LabelsPath: c.LabelsPath}
	if c.Mode == ModeOnline {
		src.URL = c.ModelURL
	} else {
		src.LocalModel = c.LocalModel
	}
	return src
}

// ModelSource разрешённый источник модели: либо URL, либо встроенная модель.
type ModelSource struct {
	Kind       AdapterKind
	Mode       Mode
	URL        string
	LocalModel string
	LabelsPath string
}

// ClampThreshold приводит порог к диапазону 0..100.
func ClampThreshold(t int) int {
	if t < 0 {
		return 0
	}
	if t > 100 {
		return 100
	}
	return t
}

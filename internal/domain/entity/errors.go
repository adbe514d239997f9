package entity

import (
	"errors"
	"fmt"
)

var (
	ErrConfig        = errors.New("configuration error")
	ErrModelLoad     = errors.New("model load failed")
	ErrModelNotReady = errors.New("model is not ready")
	ErrDecode        = errors.New("image decode failed")
	ErrInference     = errors.New("inference failed")
	ErrIO            = errors.New("image read failed")
)

// ConfigError описывает ошибку конфигурации и статус, который увидит пользователь.
type ConfigError struct {
	Status Status
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfig, e.Reason)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrConfig).
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

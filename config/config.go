package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vision-nodes/internal/domain/entity"
)

type Config struct {
	TelegramToken string
	ModelsDir     string
	ModelCacheDir string
	ONNXLibPath   string

	// Enabled адаптеры, которые поднимаются при старте, в порядке ENABLED_ADAPTERS.
	Enabled  []entity.AdapterKind
	Adapters map[entity.AdapterKind]entity.AdapterConfig
}

// Load читает .env (если он есть) и переменные окружения.
// Переданные файлы обязаны существовать.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		// Загружаем .env файл (игнорируем ошибку если файла нет)
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из getenv. Источник модели задаётся
// переменными с префиксом типа (DETECTOR_MODEL_URL). Порог, лимит, passthru
// и таймаут берутся сначала с префиксом, затем из общей переменной (THRESHOLD).
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		ModelsDir:     withDefault(getenv("MODELS_DIR"), "models"),
		ModelCacheDir: withDefault(getenv("MODEL_CACHE_DIR"), "models/.cache"),
		ONNXLibPath:   getenv("ONNX_LIB_PATH"),
		Adapters:      make(map[entity.AdapterKind]entity.AdapterConfig, len(entity.Kinds)),
	}

	enabled := withDefault(getenv("ENABLED_ADAPTERS"), "classifier,detector,pose")
	for _, name := range strings.Split(enabled, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		kind, err := entity.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("ENABLED_ADAPTERS: %w", err)
		}
		cfg.Enabled = append(cfg.Enabled, kind)
	}

	for _, kind := range entity.Kinds {
		ac, err := adapterFromEnv(kind, getenv)
		if err != nil {
			return nil, err
		}
		cfg.Adapters[kind] = ac
	}
	return cfg, nil
}

func adapterFromEnv(kind entity.AdapterKind, getenv func(string) string) (entity.AdapterConfig, error) {
	prefix := strings.ToUpper(string(kind)) + "_"
	lookup := func(key string) (string, string) {
		if v := getenv(prefix + key); v != "" {
			return v, prefix + key
		}
		return getenv(key), key
	}

	// Источник модели задаётся только для конкретного типа.
	// Пустой режим выводится из наличия URL в WithDefaults.
	ac := entity.AdapterConfig{
		Kind:       kind,
		Mode:       entity.Mode(strings.ToLower(getenv(prefix + "MODEL_MODE"))),
		ModelURL:   getenv(prefix + "MODEL_URL"),
		LocalModel: getenv(prefix + "LOCAL_MODEL"),
		LabelsPath: getenv(prefix + "LABELS_PATH"),
		Threshold:  entity.DefaultThreshold,
	}

	if v, key := lookup("THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ac, fmt.Errorf("%s: %w", key, err)
		}
		ac.Threshold = n
	}
	if v, key := lookup("MAX_DETECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ac, fmt.Errorf("%s: %w", key, err)
		}
		ac.MaxDetections = n
	}
	if v, key := lookup("PASSTHRU"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ac, fmt.Errorf("%s: %w", key, err)
		}
		ac.Passthru = b
	}
	if v, key := lookup("INFER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ac, fmt.Errorf("%s: %w", key, err)
		}
		ac.InferTimeout = d
	}
	return ac.WithDefaults(), nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

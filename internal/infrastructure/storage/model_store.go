package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
)

// Имена файлов, которые ищутся в каталоге встроенной модели, по приоритету.
var (
	modelCandidates  = []string{"model.onnx", "frozen_inference_graph.pb", "model.pb", "model.caffemodel", "model.tflite", "model.t7"}
	configCandidates = []string{"graph.pbtxt", "deploy.prototxt", "model.pbtxt", "model.prototxt"}
	labelsCandidates = []string{"labels.txt"}
)

// FileModelStore находит встроенные модели в каталоге и скачивает модели по URL в кэш.
type FileModelStore struct {
	modelsDir string
	cacheDir  string
	client    *http.Client
}

// NewFileModelStore создаёт хранилище моделей. client может быть nil.
func NewFileModelStore(modelsDir, cacheDir string, client *http.Client) *FileModelStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &FileModelStore{
		modelsDir: modelsDir,
		cacheDir:  cacheDir,
		client:    client,
	}
}

var _ port.ModelStore = (*FileModelStore)(nil)

// Resolve возвращает пути к файлам модели.
func (s *FileModelStore) Resolve(ctx context.Context, src entity.ModelSource) (port.ModelFiles, error) {
	var (
		files port.ModelFiles
		err   error
	)
	switch src.Mode {
	case entity.ModeLocal:
		files, err = s.resolveLocal(src.LocalModel)
	case entity.ModeOnline:
		files.ModelPath, err = s.fetch(ctx, src.URL)
	default:
		return port.ModelFiles{}, fmt.Errorf("unsupported model mode %q", src.Mode)
	}
	if err != nil {
		return port.ModelFiles{}, err
	}

	if src.LabelsPath != "" {
		files.LabelsPath, err = s.fetch(ctx, src.LabelsPath)
		if err != nil {
			return port.ModelFiles{}, fmt.Errorf("labels: %w", err)
		}
	}
	return files, nil
}

// resolveLocal ищет встроенную модель: файл или каталог с моделью.
func (s *FileModelStore) resolveLocal(name string) (port.ModelFiles, error) {
	if name == "" {
		return port.ModelFiles{}, errors.New("local model name is empty")
	}
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.modelsDir, name)
	}

	info, err := os.Stat(p)
	if err != nil {
		return port.ModelFiles{}, fmt.Errorf("local model %q: %w", name, err)
	}
	if !info.IsDir() {
		return port.ModelFiles{ModelPath: p}, nil
	}

	model := findFile(p, modelCandidates)
	if model == "" {
		return port.ModelFiles{}, fmt.Errorf("local model %q: no model file in %s", name, p)
	}
	return port.ModelFiles{
		ModelPath:  model,
		ConfigPath: findFile(p, configCandidates),
		LabelsPath: findFile(p, labelsCandidates),
	}, nil
}

func findFile(dir string, names []string) string {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// fetch возвращает локальный путь к ресурсу: путь и file:// как есть,
// http(s) скачивается в кэш один раз.
func (s *FileModelStore) fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "":
		if _, err := os.Stat(rawURL); err != nil {
			return "", err
		}
		return rawURL, nil
	case "file":
		p := u.Path
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	case "http", "https":
		return s.download(ctx, u)
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (s *FileModelStore) download(ctx context.Context, u *url.URL) (string, error) {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	dst := filepath.Join(s.cacheDir, cacheName(u))
	if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
		return dst, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", u.Redacted(), resp.Status)
	}

	tmp, err := os.CreateTemp(s.cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("read %s: %w", u.Redacted(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("write cache: %w", err)
	}
	return dst, nil
}

// cacheName имя файла в кэше: хэш URL и исходное имя, чтобы сохранить расширение.
func cacheName(u *url.URL) string {
	sum := sha256.Sum256([]byte(u.String()))
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = "model"
	}
	base = strings.ReplaceAll(base, string(filepath.Separator), "_")
	return hex.EncodeToString(sum[:8]) + "-" + base
}

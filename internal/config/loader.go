package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig читает YAML поверх Default(). Рядом может лежать <name>.local.yaml:
// его ключи перекрывают основной файл. Отсутствующий файл - не ошибка.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		found, err := decodeFile(filePath, cfg)
		if err != nil {
			return nil, err
		}
		if !found {
			slog.Debug("config file not found, using defaults", "path", filePath)
		}

		// local декодируется поверх: заданные ключи перекрывают, включая false и 0
		if _, err := decodeFile(LocalPath(filePath), cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// LocalPath: configs/config.yaml -> configs/config.local.yaml
func LocalPath(filePath string) string {
	ext := filepath.Ext(filePath)
	return strings.TrimSuffix(filePath, ext) + ".local" + ext
}

func decodeFile(filePath string, dst *Config) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// Логируем ошибку, но не возвращаем - иначе перезапишем основную ошибку
			slog.Warn("failed to close config file", "path", filePath, "error", closeErr)
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return true, fmt.Errorf("failed to parse config %s: %w", filePath, err)
	}
	return true, nil
}

package config

import (
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"bcn-hostel-prices/internal/listings"
)

// LoadSelectors загружает селекторы из YAML файла; не заданные секции - из встроенных
func LoadSelectors(filePath string) (*listings.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close selectors file", "path", filePath, "error", closeErr)
		}
	}()

	var selectors listings.Selectors
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	// пустые списки берутся из встроенных селекторов
	defaults, err := listings.DefaultSelectors()
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(&selectors, *defaults); err != nil {
		return nil, fmt.Errorf("failed to merge default selectors: %w", err)
	}

	if err := selectors.Validate(); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// Selectors возвращает селекторы из selectors_file или встроенные по умолчанию.
func (c *Config) Selectors() (*listings.Selectors, error) {
	if c.SelectorsFile == "" {
		return listings.DefaultSelectors()
	}
	return LoadSelectors(c.SelectorsFile)
}

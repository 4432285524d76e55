package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// логгер процесса ещё не создан, пишем через глобальный
			log.Warn("Failed to close config file", "path", filePath, "error", closeErr)
		}
	}()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.CatalogFile != "" {
		catalogPath := cfg.CatalogFile
		// Относительный путь считаем от директории конфига
		if !filepath.IsAbs(catalogPath) {
			catalogPath = filepath.Join(filepath.Dir(filePath), catalogPath)
		}
		catalog, err := LoadCatalog(catalogPath)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = catalog
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

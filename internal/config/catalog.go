package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tvratings-parser/internal/ratings"
)

type catalogFile struct {
	Channels ratings.Catalog `yaml:"channels"`
}

// LoadCatalog загружает каталог каналов из отдельного YAML файла
func LoadCatalog(filePath string) (ratings.Catalog, error) {
	if filePath == "" {
		return nil, fmt.Errorf("catalog file path is empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", filePath, err)
	}

	var parsed catalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := parsed.Channels.Validate(); err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", filePath, err)
	}

	return parsed.Channels, nil
}

// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CategoriesFile is an optional side file that replaces the category table,
// so new prospect categories can be added without touching config.yml.
type CategoriesFile struct {
	Categories []Category `yaml:"categories"`
}

func OverlayCategories(cfg *Config, categoriesPath string) error {
	b, err := os.ReadFile(categoriesPath)
	if err != nil {
		// Missing categories file should not kill startup
		return nil
	}

	var cf CategoriesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return err
	}

	if len(cf.Categories) > 0 {
		cfg.Prospect.Categories = cf.Categories
	}
	return nil
}

package container

import (
	"path/filepath"
	"time"

	"fjacquet/stmt-categorizer/internal/config"
)

// LocalConfig returns a configuration keeping every file under dir, with
// YAML storage, AI disabled and no event broker.
func LocalConfig(dir string) *config.Config {
	return &config.Config{
		Log: config.LogConfig{Level: "error", Format: "text"},
		AI:  config.AIConfig{TimeoutSeconds: 5, MaxConcurrency: 2},
		Categories: config.CategoriesConfig{
			File:         filepath.Join(dir, "categories.yaml"),
			PatternsFile: filepath.Join(dir, "patterns.yaml"),
			KeywordsFile: filepath.Join(dir, "keywords.yaml"),
			CacheTTL:     time.Minute,
		},
		Storage: config.StorageConfig{
			Driver:     config.StorageYAML,
			SQLitePath: filepath.Join(dir, "records.db"),
			ImportsDir: filepath.Join(dir, "imports"),
		},
		Events: config.EventsConfig{Exchange: "stmt-categorizer", RoutingKey: "import.completed"},
	}
}

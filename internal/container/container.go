// Package container provides dependency injection for the stmt-categorizer
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/stmt-categorizer/internal/api"
	"fjacquet/stmt-categorizer/internal/categorizer"
	"fjacquet/stmt-categorizer/internal/config"
	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/events"
	"fjacquet/stmt-categorizer/internal/hierarchy"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/patterns"
	"fjacquet/stmt-categorizer/internal/pdftext"
	"fjacquet/stmt-categorizer/internal/pipeline"
	"fjacquet/stmt-categorizer/internal/recordstore"
	"fjacquet/stmt-categorizer/internal/stmtparser"
	"fjacquet/stmt-categorizer/internal/store"
)

// Records is the record store backing categories and patterns.
type Records interface {
	hierarchy.Source
	patterns.Repository
	SaveCategories(ctx context.Context, categories []models.Category) error
}

// Overrides replaces collaborators that would otherwise be built from the
// configuration. Nil fields are built normally.
type Overrides struct {
	AIClient     categorizer.AIClient
	Publisher    events.Publisher
	PDFExtractor pdftext.Extractor
}

// Container holds all application dependencies and provides methods to access them.
// Container is immutable after creation.
type Container struct {
	logger logging.Logger
	config *config.Config

	files     *store.CategoryStore
	records   Records
	sink      pipeline.ReportSink
	hierarchy *hierarchy.Service
	patterns  *patterns.Store

	aiClient    categorizer.AIClient
	categorizer *categorizer.Categorizer
	publisher   events.Publisher
	importer    *pipeline.Importer
	pdf         pdftext.Extractor

	closers []func() error
}

// NewContainer creates and wires all application dependencies from cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewContainerWithOverrides(ctx, cfg, Overrides{})
}

// NewContainerWithOverrides is NewContainer with some collaborators supplied
// by the caller.
func NewContainerWithOverrides(ctx context.Context, cfg *config.Config, ov Overrides) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	c := &Container{logger: logger, config: cfg}

	// Keyword rules always live next to the configuration; categories and
	// patterns follow the storage driver.
	c.files = store.NewCategoryStore(
		config.ExpandPath(cfg.Categories.File),
		config.ExpandPath(cfg.Categories.PatternsFile),
		config.ExpandPath(cfg.Categories.KeywordsFile),
		logger,
	)

	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		repo, err := recordstore.NewSQLiteRepository(config.ExpandPath(cfg.Storage.SQLitePath), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open record store: %w", err)
		}
		c.records = repo
		c.sink = repo
		c.closers = append(c.closers, repo.Close)
	default:
		c.records = c.files
		c.sink = store.NewImportArchive(config.ExpandPath(cfg.Storage.ImportsDir), logger)
	}

	c.hierarchy = hierarchy.NewService(hierarchy.NewCache(c.records, cfg.Categories.CacheTTL, nil), logger)

	patternStore, err := patterns.NewStore(ctx, c.records, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	c.patterns = patternStore

	// Create AI client (if enabled)
	c.aiClient = ov.AIClient
	if c.aiClient == nil && cfg.AI.Enabled {
		gemini, err := categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.aiClient = gemini
		c.closers = append(c.closers, gemini.Close)
	}
	if c.aiClient != nil {
		logger.Info("AI categorization enabled", logging.Field{Key: "model", Value: cfg.AI.Model})
	} else {
		logger.Info("AI categorization disabled")
	}

	c.categorizer = categorizer.NewCategorizer(c.patterns, c.hierarchy, c.files, c.aiClient, categorizer.Options{
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Timeout:           cfg.AI.Timeout(),
	}, logger)

	c.publisher = ov.Publisher
	if c.publisher == nil {
		if cfg.Events.AMQPURL != "" {
			pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.RoutingKey, logger)
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to connect event publisher: %w", err)
			}
			c.publisher = pub
		} else {
			c.publisher = events.NoopPublisher{}
		}
	}
	c.closers = append(c.closers, c.publisher.Close)

	c.importer = pipeline.NewImporter(detector.New(logger), stmtparser.New(logger), c.categorizer, pipeline.Options{
		MaxConcurrency: cfg.AI.MaxConcurrency,
		Sink:           c.sink,
		Publisher:      c.publisher,
	}, logger)

	c.pdf = ov.PDFExtractor
	if c.pdf == nil {
		c.pdf = pdftext.NewPopplerExtractor()
	}

	logger.Info("Container initialized successfully",
		logging.Field{Key: "storage", Value: cfg.Storage.Driver},
		logging.Field{Key: "ai_enabled", Value: c.aiClient != nil})

	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetImporter returns the import pipeline.
func (c *Container) GetImporter() *pipeline.Importer {
	return c.importer
}

// GetHierarchy returns the category hierarchy service.
func (c *Container) GetHierarchy() *hierarchy.Service {
	return c.hierarchy
}

// GetPatterns returns the pattern store.
func (c *Container) GetPatterns() *patterns.Store {
	return c.patterns
}

// GetRecords returns the record store holding categories and patterns.
func (c *Container) GetRecords() Records {
	return c.records
}

// GetPDFExtractor returns the PDF text extractor.
func (c *Container) GetPDFExtractor() pdftext.Extractor {
	return c.pdf
}

// GetAIClient returns the container's AI client instance.
// Returns nil if AI is not enabled.
func (c *Container) GetAIClient() categorizer.AIClient {
	return c.aiClient
}

// ReplaceCategories stores categories and drops the cached hierarchy.
func (c *Container) ReplaceCategories(ctx context.Context, categories []models.Category) error {
	if err := c.records.SaveCategories(ctx, categories); err != nil {
		return err
	}
	c.hierarchy.Invalidate()
	return nil
}

// NewAPIServer builds the HTTP API over the container's services.
func (c *Container) NewAPIServer() *api.Server {
	return api.NewServer(c.importer, c.categorizer, c.hierarchy, c.patterns,
		api.Options{ExposeStack: c.config.Server.ExposeStack}, c.logger)
}

// Close releases the record store, the AI client and the event publisher.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.logger.Debug("Container closed")
	return errors.Join(errs...)
}

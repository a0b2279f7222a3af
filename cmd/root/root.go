// Package root contains the root command for the application
package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/stmt-categorizer/internal/config"
	"fjacquet/stmt-categorizer/internal/container"
	"fjacquet/stmt-categorizer/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input    string
	LogLevel string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.GetLogger()

	// AppContainer is built before any subcommand runs.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "stmt-categorizer",
		Short: "A CLI tool to import bank statements and categorize their operations.",
		Long: `stmt-categorizer reads Fortuneo and BoursoBank statements (PDF or text),
extracts their operations and assigns each one a spending category using
user-confirmed patterns, keyword rules and an optional AI classifier.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to stmt-categorizer!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			Shutdown()
		},
	}

	// SharedFlags holds the persistent flags.
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (overrides configuration)")
}

// Initialize loads the configuration and builds the container. A container
// set beforehand (tests) is kept.
func Initialize(cmd *cobra.Command) error {
	if AppContainer != nil {
		Log = AppContainer.GetLogger()
		return nil
	}

	config.LoadEnv()
	cfg, err := config.InitializeConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}

	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	SetContainer(c)
	return nil
}

// SetContainer installs c as the application container and its logger as the
// shared logger.
func SetContainer(c *container.Container) {
	AppContainer = c
	if c != nil {
		Log = c.GetLogger()
		logging.SetLogger(Log)
	}
}

// GetContainer returns the application container, or nil before Initialize.
func GetContainer() *container.Container {
	return AppContainer
}

// Shutdown closes the container.
func Shutdown() {
	if AppContainer == nil {
		return
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to release resources")
	}
	AppContainer = nil
}

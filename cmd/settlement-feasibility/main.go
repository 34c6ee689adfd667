package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iwvelando/settlement-feasibility/internal/config"
	"github.com/iwvelando/settlement-feasibility/internal/feasibility"
	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/output"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zc zap.Config
	switch format {
	case "console":
		zc = zap.NewDevelopmentConfig()
	case "json":
		zc = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zc.Level = zap.NewAtomicLevelAt(zapLevel)
	// Reports go to stdout, so logs default to stderr.
	zc.OutputPaths = []string{"stderr"}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		// Test if we can create/write to the file
		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zc.OutputPaths = []string{loggingConfig.OutputFile}
		zc.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zc.Build()
}

// loadConfiguration reads path, falling back to the built-in defaults when
// the default file is absent.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		return config.DefaultConfiguration()
	}
	return config.LoadConfiguration(path)
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	seed := flag.Uint64("seed", 0, "Monte Carlo seed override")
	trials := flag.Int("trials", 0, "Monte Carlo trial count override")
	workbook := flag.String("workbook", "", "write an xlsx workbook to this path")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Load the config file to get logging configuration
	conf, err := loadConfiguration(*configLocation, set["config"])
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Flags explicitly passed override the simulation and workbook settings.
	if set["seed"] {
		conf.Simulation.Seed = seed
	}
	if set["trials"] {
		conf.Simulation.Trials = *trials
	}
	if set["workbook"] {
		conf.Output.Workbook = *workbook
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run the full evaluation pipeline
	report, err := feasibility.Run(ctx, logger, conf)
	if err != nil {
		logger.Fatal("failed to evaluate feasibility",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, report)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, report)
	}
	if err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if path := conf.Output.Workbook; path != "" {
		if err := output.WriteWorkbook(path, report); err != nil {
			logger.Fatal("failed to write workbook",
				zap.String("op", "main"),
				zap.String("path", path),
				zap.Error(err),
			)
		}
		logger.Info("wrote workbook",
			zap.String("op", "main"),
			zap.String("path", path),
		)
	}
}

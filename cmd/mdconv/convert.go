package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdconv"
	"github.com/alnah/go-mdconv/internal/config"
	"github.com/alnah/go-mdconv/internal/logging"
)

// dirPermissions is used for created output directories.
const dirPermissions = 0o750 // rwxr-x---: owner full, group read+execute

// ErrConversionFailed reports how many files of a batch failed.
var ErrConversionFailed = errors.New("conversion failed")

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath string
	Files     map[mdconv.OutputType]string
	Err       error
	Duration  time.Duration
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, flags *cliFlags, inputs []string, env *Environment) (err error) {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)
	if flags.workers == 0 {
		if err := validateWorkers(envCfg.Workers); err != nil {
			return fmt.Errorf("MDCONV_WORKERS: %w", err)
		}
	}
	cfg, err := loadConfig(flags, envCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = &localeError{err: err, locale: cfg.Dates.Locale}
		}
	}()

	logger, closeLog, err := logging.New(cfg.Logging, env.Stdout, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeLog()) }()
	defer func() { _ = logger.Sync() }()

	for _, name := range unknownEnvVars(env.Environ()) {
		logger.Warn("unknown environment variable (typo?)", zap.String("name", name))
	}

	settings, err := buildSettings(cfg)
	if err != nil {
		return err
	}
	types, err := outputTypes(cfg.Output.Types)
	if err != nil {
		return err
	}
	files, err := discoverFiles(inputs, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no Markdown files found", ErrNoInput)
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	size := min(mdconv.ResolvePoolSize(workers), len(files))
	timeout := resolveTimeout(flags, envCfg)
	logger.Debug("starting conversion",
		zap.Int("files", len(files)), zap.Int("workers", size), zap.Duration("timeout", timeout))

	pool := mdconv.NewConverterPool(size, func() (*mdconv.Converter, error) {
		opts := []mdconv.Option{
			mdconv.WithTimeout(timeout),
			mdconv.WithLogger(logger),
			mdconv.WithAssetPath(cfg.Assets.BasePath),
		}
		return mdconv.NewConverter(append(opts, env.ConverterOptions...)...)
	})
	defer func() { err = multierr.Append(err, pool.Close()) }()

	results := convertBatch(ctx, pool, files, types, settings)
	return reportResults(logger, results)
}

// loadConfig loads the config file named by the flag or environment, then
// applies environment and flag overrides.
func loadConfig(flags *cliFlags, envCfg *envConfig) (*config.Config, error) {
	name := flags.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveTimeout picks the flag, then the environment, then the default.
func resolveTimeout(flags *cliFlags, envCfg *envConfig) time.Duration {
	if flags.timeout > 0 {
		return flags.timeout
	}
	if envCfg.Timeout > 0 {
		return envCfg.Timeout
	}
	return mdconv.DefaultTimeout
}

// convertBatch converts files concurrently, one job per pooled Converter.
// A failed file does not stop the others; cancellation skips queued files.
func convertBatch(ctx context.Context, pool *mdconv.ConverterPool, files []FileToConvert, types []mdconv.OutputType, s mdconv.Settings) []ConversionResult {
	results := make([]ConversionResult, len(files))

	var g errgroup.Group
	g.SetLimit(pool.Size())
	for i, f := range files {
		g.Go(func() error {
			results[i] = convertFile(ctx, pool, f, types, s)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// convertFile runs one job on a Converter borrowed from the pool.
func convertFile(ctx context.Context, pool *mdconv.ConverterPool, f FileToConvert, types []mdconv.OutputType, s mdconv.Settings) (result ConversionResult) {
	start := time.Now()
	result.InputPath = f.InputPath
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	if f.OutputDir != "" {
		if err := os.MkdirAll(f.OutputDir, dirPermissions); err != nil {
			result.Err = fmt.Errorf("%w: %v", mdconv.ErrWriteOutput, err)
			return result
		}
	}

	conv, err := pool.Acquire(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	defer func() { result.Err = multierr.Append(result.Err, pool.Release(conv)) }()

	out, err := conv.Convert(ctx, mdconv.Job{
		Input:     f.InputPath,
		OutputDir: f.OutputDir,
		Types:     types,
		Settings:  s,
	})
	if err != nil {
		result.Err = err
		return result
	}
	result.Files = out.Files
	return result
}

// reportResults logs each failure and combines them into one error.
func reportResults(logger *zap.Logger, results []ConversionResult) error {
	var failed []fileError
	for _, r := range results {
		if r.Err == nil {
			logger.Debug("converted", zap.String("input", r.InputPath), zap.Duration("elapsed", r.Duration))
			continue
		}
		logger.Error("conversion failed", zap.String("input", r.InputPath), zap.Error(r.Err))
		failed = append(failed, fileError{path: r.InputPath, err: r.Err})
	}
	if len(failed) == 0 {
		logger.Info("done", zap.Int("files", len(results)))
		return nil
	}
	return &batchError{total: len(results), files: failed}
}

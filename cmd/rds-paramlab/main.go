// Package main is the batch entry point: it runs one self-contained
// parameter-group experiment defined by the compiled-in configuration
// and writes the profiling report to the log. No flags.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dfraser/rds-paramlab/internal/app/usecase"
	"github.com/dfraser/rds-paramlab/internal/domain/config"
	"github.com/dfraser/rds-paramlab/internal/domain/workload"
	"github.com/dfraser/rds-paramlab/internal/infra/cloud"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := config.Default()
	wl := workload.Default()

	api, err := cloud.NewRDSClient(ctx)
	if err != nil {
		slog.Error("rds-paramlab: cloud client setup failed", "error", err)
		os.Exit(1)
	}

	uc, err := usecase.NewExperimentUseCase(api, cfg, wl)
	if err != nil {
		slog.Error("rds-paramlab: invalid run definition", "error", err)
		os.Exit(1)
	}

	slog.Info("rds-paramlab: starting experiment",
		"label", cfg.Label,
		"class", cfg.InstanceClass,
		"variants", len(cfg.VariantSpecs))

	if err := uc.Run(ctx); err != nil {
		slog.Error("rds-paramlab: experiment finished with failures", "error", err)
		os.Exit(1)
	}
	slog.Info("rds-paramlab: experiment completed")
}

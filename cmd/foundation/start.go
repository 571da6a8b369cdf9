// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foundation-hq/foundation/internal/config"
	fnderr "github.com/foundation-hq/foundation/pkg/errors"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the foundation service",
		Long:  "Load configuration, initialize all subsystems, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fnderr.Wrap(err, fnderr.CodeCLISetupFailure, "loading config")
	}

	// Apply any flag/env overrides that Viper resolved.
	if listen := viper.GetString("server.listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := WireService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.GeneratedMasterKey != "" {
		// The raw key is recoverable only from this output.
		fmt.Fprintf(cmd.OutOrStdout(),
			"Generated master API key (store it now, it will not be shown again):\n\n  %s\n\n",
			svc.GeneratedMasterKey)
	}

	logger.Info("starting foundation",
		"listen", cfg.Server.Listen,
		"backend", cfg.Storage.Backend,
		"embedder", cfg.Embedder.Endpoint,
		"dimensions", cfg.Embedder.Dimensions,
	)

	return svc.Server.Start(ctx)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service status",
		Long:  "Check the running service's health endpoints and display status information.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:8420", "service address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newServiceClient(addr)
	var body struct {
		Status string `json:"status"`
	}
	if err := client.getJSON("/health", &body); err != nil {
		if errors.Is(err, ErrServiceNotRunning) {
			_, _ = fmt.Fprintf(out, "Foundation at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Foundation at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Foundation at %s: %s\n", addr, body.Status)

	var dbBody struct {
		Status string `json:"status"`
	}
	if err := client.getJSON("/health/db", &dbBody); err != nil {
		_, _ = fmt.Fprintf(out, "  database: unavailable (%s)\n", err)
	} else {
		_, _ = fmt.Fprintf(out, "  database: %s\n", dbBody.Status)
	}

	var embedBody struct {
		Status       string `json:"status"`
		FailureCount int64  `json:"failure_count"`
	}
	if err := client.getJSON("/health/embed", &embedBody); err != nil {
		_, _ = fmt.Fprintf(out, "  embedder: unavailable (%s)\n", err)
	} else {
		_, _ = fmt.Fprintf(out, "  embedder: %s (failures: %d)\n", embedBody.Status, embedBody.FailureCount)
	}

	return nil
}

// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Qrserver serves QR codes over HTTP.
//
//	qrserver serve [-c config.yaml] [--env .env] [--addr :8080]
//	qrserver config
//	qrserver version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unixdj/qrgen/internal/config"
	"github.com/unixdj/qrgen/internal/server"
)

var version = "0.9.0"

func main() {
	root := &cobra.Command{
		Use:          "qrserver",
		Short:        "QR code generator HTTP service",
		SilenceUsage: true,
	}

	var configPath, envFile, addr string
	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath, envFile)
		if err != nil {
			return nil, err
		}
		if addr != "" {
			cfg.Addr = addr
		}
		return cfg, nil
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to dotenv file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	root.AddCommand(serveCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	root.AddCommand(configCmd)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "qrserver", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cfg *config.Config) error {
	log, err := server.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	s, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}

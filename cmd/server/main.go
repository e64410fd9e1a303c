// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/service"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "unknown"
)

// @title Link Service API
// @version 1.0.0
// @description Serial link control service: connect switch, screen and role selection, link settings and the background worker
// @BasePath /api/v1
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "link-service",
		Short:        "Serial link control service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./config.yaml or ./config/config.yaml)")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newPortsCmd(&configPath),
		newVersionCmd(),
	)
	return rootCmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the link refresh loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			app, err := NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
}

func newPortsCmd(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports that can be used for the link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			ds := service.NewDiscoveryService(&cfg.Discovery, zap.NewNop())
			ports, err := ds.ListPorts(ctx, all)
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Name", "Label", "USB", "VID:PID", "Serial")
			for _, p := range ports {
				ids := ""
				if p.IsUSB {
					ids = p.VID + ":" + p.PID
				}
				if err := table.Append(p.Name, p.Label, fmt.Sprint(p.IsUSB), ids, p.SerialNumber); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include non-USB ports")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{"version": version, "commit": commit}
			if format == "json" {
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "link-service %s (%s)\n", version, commit)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format (json)")
	return cmd
}

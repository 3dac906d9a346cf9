package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Alp4ka/gotable"
)

var Version = "0.1.0"

func showBanner(cfg *Config) {
	color.New(color.FgGreen, color.Bold).Println("gotable")
	fmt.Print("  ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
	fmt.Print("  ")
	color.New(color.FgCyan, color.Bold).Print("Listening: ")
	color.New(color.FgYellow).Printf("%s%s\n", cfg.Server.Addr, cfg.Server.Path)
	fmt.Print("  ")
	color.New(color.FgCyan, color.Bold).Print("Tables: ")
	color.New(color.FgYellow).Printf("%d\n", len(cfg.Tables))
}

func newRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "gotable",
		Short:         "Serve searchable, sortable and paginated HTML tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./gotable.yaml)")

	root.AddCommand(newServeCommand(&cfgFile))
	root.AddCommand(newTablesCommand(&cfgFile))

	return root
}

func newServeCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}

			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			logger := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

			registry := gotable.NewRegistry()
			if err := registerTables(registry, cfg.Tables, logger); err != nil {
				return err
			}

			server, err := NewServer(cfg, registry, logger)
			if err != nil {
				return err
			}

			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				showBanner(cfg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Listen()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				return server.Shutdown()
			}
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides config)")
	cmd.Flags().BoolP("quiet", "q", false, "do not print the banner")

	return cmd
}

func newTablesCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List configured tables and their row counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgFile)
			if err != nil {
				return err
			}

			logger := newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
			registry := gotable.NewRegistry()
			if err := registerTables(registry, cfg.Tables, logger); err != nil {
				return err
			}

			for _, id := range registry.IDs() {
				source, _ := registry.Lookup(id.String())
				tcfg, err := source.TableConfig(cmd.Context(), id.String())
				if err != nil {
					color.Red("%s: %v", id, err)
					continue
				}

				table, err := gotable.New(tcfg)
				if err != nil {
					color.Red("%s: %v", id, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\t%v\n", color.GreenString(id.String()), table.Len(), table.Schema())
			}

			return nil
		},
	}
}

func execute(ctx context.Context) error {
	err := newRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		color.Red("error: %v", err)
	}

	return err
}

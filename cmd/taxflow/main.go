package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/config"
	"github.com/Veraticus/the-tax-must-flow/internal/engine"
)

var version = "dev"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	engine  *engine.Engine
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), engine: engine.New()}

	rootCmd := &cobra.Command{
		Use:   "taxflow",
		Short: "🧾 Deterministic US federal income tax engine",
		Long: `taxflow computes a US federal individual income tax return from a YAML
snapshot of source documents and a filing profile.

Every line on the return can be explained: each value carries the rule that
produced it and the lines it consumed.`,
		PersistentPreRunE: a.initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/taxflow/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "return archive path (overrides database.path)")

	_ = a.v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = a.v.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(a.computeCmd())
	rootCmd.AddCommand(a.explainCmd())
	rootCmd.AddCommand(a.browseCmd())
	rootCmd.AddCommand(a.whatIfCmd())
	rootCmd.AddCommand(a.paramsCmd())
	rootCmd.AddCommand(a.historyCmd())
	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	handler := cli.NewInterruptHandler(os.Stderr, "Shutting down")
	ctx, cancel := context.WithCancel(context.Background())
	ctx = handler.HandleInterrupts(ctx)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	for _, e := range common.Errors(err) {
		fmt.Fprintln(w, cli.FormatError(e.Error()))
	}
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		a.v.AddConfigPath(fmt.Sprintf("%s/.config/taxflow", home))
		a.v.AddConfigPath(".")
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("TAXFLOW")
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	setupLogging(cfg)
	return nil
}

func setupLogging(cfg *config.Config) {
	common.SetupLogger(common.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxflow %s\n", version)
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	version   = "dev"
	appConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:   "bankweave",
		Short: "🏦 Personal finance import, reconciliation and categorization",
		Long: `bankweave ingests statements and API feeds from several banks and brokers,
merges them into per-account ledgers without double counting, and
categorizes every movement with your rules, your corrections and a
keyword classifier.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/bankweave/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: "+config.DefaultDatabasePath+")")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(accountsCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(recategorizeCmd())
	rootCmd.AddCommand(learnCmd())
	rootCmd.AddCommand(dedupeCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := handler.HandleInterrupts(context.Background())

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(userMessage(err))) //nolint:forbidigo // User-facing output
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// A missing .env is normal; provider credentials may come from the shell.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/bankweave", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("BANKWEAVE")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := common.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	appConfig = cfg
	return nil
}

// userMessage prefers the friendlier text of upstream failures.
func userMessage(err error) string {
	var upstream *common.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.UserMessage()
	}
	return err.Error()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bankweave %s\n", version) //nolint:forbidigo // User-facing output
		},
	}
}

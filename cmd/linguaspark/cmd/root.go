package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/linguaspark/linguaspark-go/internal/config"
	"github.com/linguaspark/linguaspark-go/internal/logging"
)

const version = "0.3.0"

// appConfig is resolved once per invocation in PersistentPreRunE.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:     "linguaspark",
	Short:   "LinguaSpark: offline neural machine translation",
	Version: version,
	Long: `LinguaSpark translates text locally with bergamot (Marian) models.

Models live in per-pair directories under the models dir, for example
models/enfr holding vocab.enfr.spm, model.enfr.intgemm.alphas.bin and an
optional lex.*.s2t.bin shortlist.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	defaults := config.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.String("env", ".env", "Path to the .env file")
	flags.BoolP("verbose", "v", false, "Enable verbose output")
	flags.IntP("workers", "w", defaults.Workers, "Translation workers (0 = auto)")
	flags.String("models-dir", defaults.ModelsDir, "Directory of per-pair model directories")
	flags.String("log-format", defaults.LogFormat, "Log format: json or text")
	flags.Bool("cache", defaults.CacheEnabled, "Cache translations")

	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("workers", flags.Lookup("workers"))
	viper.BindPFlag("models_dir", flags.Lookup("models-dir"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("cache_enabled", flags.Lookup("cache"))

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read from environment variables
}

// loadConfig reads the .env file, then LINGUASPARK_* variables, then flags;
// later sources win.
func loadConfig(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Workers = viper.GetInt("workers")
	cfg.ModelsDir = viper.GetString("models_dir")
	cfg.LogFormat = viper.GetString("log_format")
	cfg.CacheEnabled = viper.GetBool("cache_enabled")
	if viper.GetBool("verbose") {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.Debug("configuration loaded", slog.String("config", cfg.String()))
	appConfig = cfg
	return nil
}

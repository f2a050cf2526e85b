// Command posctl records sales, shifts and stock changes at the counter and pushes
// them to the back office when the connection allows.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"laundromat/api"
	"laundromat/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:   "posctl",
	Short: "Stage laundromat records offline and sync them to the back office",
	Long: `posctl keeps sales, clock events and inventory changes in a local SQLite stage.
Nothing is lost while the back office is unreachable; "posctl sync" pushes the
stage and clears what the server accepted.

Settings come from flags, POSCTL_* environment variables or a posctl.yaml in
$HOME/.config/posctl or the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadSettings(settings); err != nil {
			return err
		}
		return initLogger(settings.GetBool("verbose"))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: posctl.yaml)")
	flags.String("server", "http://localhost:8080", "Back office base URL")
	flags.String("stage", defaultStagePath(), "Path of the local stage database")
	flags.Duration("timeout", api.DefaultTimeout, "Timeout for the sync request")
	flags.BoolP("verbose", "v", false, "Log sync details to stderr")

	for _, name := range []string{"config", "server", "stage", "timeout", "verbose"} {
		_ = settings.BindPFlag(name, flags.Lookup(name))
	}
	settings.SetEnvPrefix("POSCTL")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
}

func defaultStagePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "posctl", "stage.db")
	}
	return "posctl-stage.db"
}

// loadSettings reads the config file. A missing default file is fine, a missing
// explicit one is not.
func loadSettings(v *viper.Viper) error {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("posctl")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "posctl"))
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func initLogger(verbose bool) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// withStage opens the stage for one command.
func withStage(fn func(ctx context.Context, st *client.Stage) error) error {
	st, err := client.OpenStage(settings.GetString("stage"))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(context.Background(), st)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

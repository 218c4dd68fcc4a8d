package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aalhour/packstore/internal/logging"
)

const (
	keyLogLevel    = "log-level"
	keyCompression = "compression"
)

// app carries per-invocation state shared by the subcommands.
type app struct {
	v      *viper.Viper
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	root := &cobra.Command{
		Use:   "packdump",
		Short: "Inspect, verify and convert packstore blobs",
		Long: `packdump reads blob files written by packstore.Marshal or WriteTo.

Commands:
  inspect FILE            Show the blob header and collection summary
  verify FILE...          Check checksums and decode every file
  convert IN OUT          Re-encode a blob with another compression codec`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(cfgFile); err != nil {
				return err
			}
			level, err := logging.ParseLevel(a.v.GetString(keyLogLevel))
			if err != nil {
				return err
			}
			a.logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (can also use PACKDUMP_CONFIG_FILE env var)")
	root.PersistentFlags().StringP(keyLogLevel, "l", "warn", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag(keyLogLevel, root.PersistentFlags().Lookup(keyLogLevel))

	root.AddCommand(a.inspectCmd(), a.verifyCmd(), a.convertCmd())
	return root
}

// loadConfig reads the config file, if any, and binds PACKDUMP_* variables.
// An explicitly named file must exist; the default .packdump file is optional.
func (a *app) loadConfig(cfgFile string) error {
	a.v.SetEnvPrefix("PACKDUMP")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = a.v.GetString("config_file")
	}
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	a.v.AddConfigPath(".")
	a.v.SetConfigName(".packdump")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

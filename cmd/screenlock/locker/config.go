package locker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/screenlock/internal/consts"
	"github.com/ubuntu/screenlock/log"
)

// initViperConfig sets verbosity level and add config env variables and file support based on name prefix.
func initViperConfig(name string, cmd *cobra.Command, vip *viper.Viper) (err error) {
	defer decorate.OnError(&err, "can't load configuration")

	// Get cmdline flag for verbosity to configure logger until we have everything parsed.
	v, err := cmd.Flags().GetCount("verbosity")
	if err != nil {
		return fmt.Errorf("internal error: no persistent verbosity flag installed on cmd: %w", err)
	}
	setVerboseMode(v)

	// Handle configuration.
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		vip.SetConfigFile(v)
	} else {
		vip.SetConfigName(name)
		vip.AddConfigPath("./")
		vip.AddConfigPath("$HOME/")
		if configDir, err := os.UserConfigDir(); err == nil {
			vip.AddConfigPath(filepath.Join(configDir, name))
		}
		// Add the executable path to the config search path.
		if binPath, err := os.Executable(); err != nil {
			log.Warningf(context.Background(), "Failed to get current executable path, not adding it as a config dir: %v", err)
		} else {
			vip.AddConfigPath(filepath.Dir(binPath))
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if errors.As(err, &e) {
			log.Infof(context.Background(), "No configuration file: %v.\nWe will only use the defaults, env variables or flags.", e)
		} else {
			return fmt.Errorf("invalid configuration file: %w", err)
		}
	} else {
		log.Infof(context.Background(), "Using configuration file: %v", vip.ConfigFileUsed())
	}

	// Handle environment.
	vip.SetEnvPrefix(name)
	vip.AutomaticEnv()

	// Keys contain underscores, so the environment variables can't be mapped back to keys.
	// Bind every known key to its variable instead, to be able to unmarshall those into a struct.
	prefix := strings.ToUpper(name) + "_"
	for _, k := range vip.AllKeys() {
		env := prefix + strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
		if err := vip.BindEnv(k, env); err != nil {
			return fmt.Errorf("could not bind environment variable: %w", err)
		}
	}

	return nil
}

// setConfigDefaults registers every configuration key, so that they can all be set from the environment.
func setConfigDefaults(vip *viper.Viper) {
	vip.SetDefault("general.pam_module", cmdName)
	vip.SetDefault("general.fallback_password", "")
	vip.SetDefault("general.grace", "0s")
	vip.SetDefault("general.ignore_empty_input", false)
	vip.SetDefault("logind", false)
	vip.SetDefault("journal", false)
}

// installConfigFlag installs a --config option.
func installConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().StringP("config", "c", "", "use a specific configuration file")
}

// installVerbosityFlag adds the -v and -vv options and returns the reference to it.
func installVerbosityFlag(cmd *cobra.Command, vip *viper.Viper) *int {
	r := cmd.PersistentFlags().CountP("verbosity", "v", "issue INFO (-v) or DEBUG (-vv) output")
	decorate.LogOnError(vip.BindPFlag("verbosity", cmd.PersistentFlags().Lookup("verbosity")))
	return r
}

// setVerboseMode changes the log level between very, middly and non verbose.
func setVerboseMode(level int) {
	switch level {
	case 0:
		log.SetLevel(consts.DefaultLogLevel)
	case 1:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.DebugLevel)
	}
}

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/truthcore/internal/logging"
	"github.com/ppiankov/truthcore/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "truthcore",
	Short: "TruthCore - transparent confidence scoring for claims",
	Long: `TruthCore estimates how much confidence a claim deserves by combining four
independent signals into a single percentage:

  Source Lineage          credibility of where the claim came from
  Evidence Consistency    agreement with published fact-checks
  Historical Reliability  past accuracy of the source
  Manipulation Signals    sensational phrasing

Every score comes with its breakdown. TruthCore is an aid to judgement,
not a verdict.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "truthcore v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.truthcore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and environment variables
func initConfig() {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// TRUTHCORE_FACT_CHECK_TIMEOUT etc.
	viper.SetEnvPrefix("TRUTHCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv registers every config key with viper so AutomaticEnv covers it,
// plus the conventional credential variables.
func bindEnv() {
	raw, err := yaml.Marshal(model.DefaultConfig())
	if err == nil {
		var tree map[string]interface{}
		if yaml.Unmarshal(raw, &tree) == nil {
			for _, key := range flattenKeys("", tree) {
				_ = viper.BindEnv(key)
			}
		}
	}

	_ = viper.BindEnv("fact_check.api_key", "TRUTHCORE_FACT_CHECK_API_KEY", "FACTCHECK_API_KEY")
	_ = viper.BindEnv("transcription.api_key", "TRUTHCORE_TRANSCRIPTION_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("server.passphrase", "TRUTHCORE_SERVER_PASSPHRASE", "TRUTHCORE_PASSPHRASE")
}

func flattenKeys(prefix string, tree map[string]interface{}) []string {
	var keys []string
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]interface{}); ok && len(sub) > 0 {
			keys = append(keys, flattenKeys(key, sub)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// loadConfig overlays file and environment values on the defaults and validates the result
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger from config and installs it as the default
func newLogger(cfg *model.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// configDir returns ~/.truthcore
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".truthcore"), nil
}

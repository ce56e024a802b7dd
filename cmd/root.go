package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string
var logger = zap.NewNop().Sugar()

var rootCmd = &cobra.Command{
	Use:   "hdrscan",
	Short: "Analyze the HTTP response headers of a URL for security issues",
	Long: `hdrscan fetches a URL and classifies its HTTP response headers: missing
security headers, fingerprinting headers, deprecated or insecure values,
empty values and browser compatibility of the enabled security headers.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()
		applyConfigDefaults(cmd)

		l, err := newLogger(cliConfig.Defaults.LogLevel)
		if err != nil {
			return err
		}
		logger = l.Sugar()
		logger.Debugw("configuration loaded", "config", viper.ConfigFileUsed())
		return nil
	},
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".hdrscan")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("hdrscan")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// newLogger builds a production logger writing to stderr so that report
// output on stdout stays clean.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hdrscan.yaml)")
	rootCmd.PersistentFlags().StringVar(&cliConfig.Defaults.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(guidesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

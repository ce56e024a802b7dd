package cmd

import (
	"github.com/khanhnv2901/hdrscan/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultLang      = "en"
	defaultLogLevel  = "warn"
	defaultOutputDir = "."
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Defaults DefaultValues
	Analyze  AnalyzeConfig
}

// DefaultValues represent user-level defaults, typically derived from env/config.
type DefaultValues struct {
	Lang        string
	TimeoutSecs int
	OutputDir   string
	UserAgent   string
	VerifyTLS   bool
	Retries     int
	Brief       bool
	LogLevel    string
}

// AnalyzeConfig consolidates flag-driven settings for the analyze command.
type AnalyzeConfig struct {
	URL         string
	Lang        string
	Output      string
	OutputDir   string
	UserAgent   string
	TimeoutSecs int
	Retries     int
	Brief       bool
	Raw         bool
	Tech        bool
	VerifyTLS   bool
}

type defaultOverrides struct {
	Lang        string
	TimeoutSecs *int
	OutputDir   string
	UserAgent   string
	VerifyTLS   *bool
	Retries     *int
	Brief       *bool
	LogLevel    string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	timeout := int(constants.DefaultRequestTimeout.Seconds())
	return &CLIConfig{
		Defaults: DefaultValues{
			Lang:        defaultLang,
			TimeoutSecs: timeout,
			OutputDir:   defaultOutputDir,
			UserAgent:   constants.DefaultUserAgent,
			Retries:     constants.DefaultRetries,
			LogLevel:    defaultLogLevel,
		},
		Analyze: AnalyzeConfig{
			Lang:        defaultLang,
			OutputDir:   defaultOutputDir,
			UserAgent:   constants.DefaultUserAgent,
			TimeoutSecs: timeout,
			Retries:     constants.DefaultRetries,
		},
	}
}

func loadDefaultOverrides() defaultOverrides {
	overrides := defaultOverrides{}

	if viper.IsSet("defaults.lang") {
		overrides.Lang = viper.GetString("defaults.lang")
	}

	if viper.IsSet("defaults.timeout_secs") {
		val := viper.GetInt("defaults.timeout_secs")
		overrides.TimeoutSecs = &val
	}

	if viper.IsSet("defaults.output_dir") {
		overrides.OutputDir = viper.GetString("defaults.output_dir")
	}

	if viper.IsSet("defaults.user_agent") {
		overrides.UserAgent = viper.GetString("defaults.user_agent")
	}

	if viper.IsSet("defaults.verify_tls") {
		val := viper.GetBool("defaults.verify_tls")
		overrides.VerifyTLS = &val
	}

	if viper.IsSet("defaults.retries") {
		val := viper.GetInt("defaults.retries")
		overrides.Retries = &val
	}

	if viper.IsSet("defaults.brief") {
		val := viper.GetBool("defaults.brief")
		overrides.Brief = &val
	}

	if viper.IsSet("defaults.log_level") {
		overrides.LogLevel = viper.GetString("defaults.log_level")
	}

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadDefaultOverrides()
	flags := cmd.Flags()

	if overrides.Lang != "" {
		applyStringDefault(flags, "lang", overrides.Lang, func(v string) {
			cliConfig.Defaults.Lang = v
			cliConfig.Analyze.Lang = v
		})
	}

	if overrides.TimeoutSecs != nil && *overrides.TimeoutSecs > 0 {
		applyIntDefault(flags, "timeout", *overrides.TimeoutSecs, func(v int) {
			cliConfig.Defaults.TimeoutSecs = v
			cliConfig.Analyze.TimeoutSecs = v
		})
	}

	if overrides.OutputDir != "" {
		applyStringDefault(flags, "output-dir", overrides.OutputDir, func(v string) {
			cliConfig.Defaults.OutputDir = v
			cliConfig.Analyze.OutputDir = v
		})
	}

	if overrides.UserAgent != "" {
		applyStringDefault(flags, "user-agent", overrides.UserAgent, func(v string) {
			cliConfig.Defaults.UserAgent = v
			cliConfig.Analyze.UserAgent = v
		})
	}

	if overrides.VerifyTLS != nil {
		applyBoolDefault(flags, "verify-tls", *overrides.VerifyTLS, func(v bool) {
			cliConfig.Defaults.VerifyTLS = v
			cliConfig.Analyze.VerifyTLS = v
		})
	}

	if overrides.Retries != nil && *overrides.Retries >= 0 {
		applyIntDefault(flags, "retries", *overrides.Retries, func(v int) {
			cliConfig.Defaults.Retries = v
			cliConfig.Analyze.Retries = v
		})
	}

	if overrides.Brief != nil {
		applyBoolDefault(flags, "brief", *overrides.Brief, func(v bool) {
			cliConfig.Defaults.Brief = v
			cliConfig.Analyze.Brief = v
		})
	}

	if overrides.LogLevel != "" {
		applyStringDefault(cmd.Root().PersistentFlags(), "log-level", overrides.LogLevel, func(v string) {
			cliConfig.Defaults.LogLevel = v
		})
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

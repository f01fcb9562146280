package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// appConfig holds the CLI's settings. Every field is backed by a persistent
// flag of the same name (log_level by the log-level flag) and can also come
// from a config file or a RANDOMWRITER_* environment variable; flags win
// over environment, which wins over the file, which wins over the defaults.
type appConfig struct {
	Mode     string `mapstructure:"mode" json:"mode"`
	Level    int    `mapstructure:"level" json:"level"`
	Amount   int    `mapstructure:"amount" json:"amount"`
	Model    string `mapstructure:"model" json:"model"`
	DB       string `mapstructure:"db" json:"db"`
	Name     string `mapstructure:"name" json:"name"`
	Output   string `mapstructure:"output" json:"output"`
	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

func defaultConfig() appConfig {
	return appConfig{
		Mode:     "word",
		Level:    2,
		Amount:   250,
		Model:    "model.json",
		DB:       "",
		Name:     "",
		Output:   "-",
		LogLevel: "info",
	}
}

func registerFlags(fs *pflag.FlagSet, defaults appConfig) {
	fs.String("mode", defaults.Mode, "Tokenization mode for new models (word|character|byte)")
	fs.Int("level", defaults.Level, "Context length in tokens for new models")
	fs.Int("amount", defaults.Amount, "Number of tokens to generate (0 for unbounded)")
	fs.String("model", defaults.Model, "Model file path")
	fs.String("db", defaults.DB, "SQLite model store path (used instead of --model when set)")
	fs.String("name", defaults.Name, "Model name inside the store")
	fs.String("output", defaults.Output, "Output path ('-' for stdout)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func loadConfig(cmd *cobra.Command, cfgFile string, defaults appConfig) (appConfig, error) {
	v := viper.New()

	setDefaults(v, defaults)
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return appConfig{}, fmt.Errorf("bind flags: %w", err)
	}
	// log-level is the only flag whose name differs from its config key;
	// bind it onto log_level so every layer resolves through that key.
	if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return appConfig{}, fmt.Errorf("bind log-level flag: %w", err)
	}

	v.SetEnvPrefix("RANDOMWRITER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return appConfig{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("randomwriter")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return appConfig{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg appConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c appConfig) {
	v.SetDefault("mode", c.Mode)
	v.SetDefault("level", c.Level)
	v.SetDefault("amount", c.Amount)
	v.SetDefault("model", c.Model)
	v.SetDefault("db", c.DB)
	v.SetDefault("name", c.Name)
	v.SetDefault("output", c.Output)
	v.SetDefault("log_level", c.LogLevel)
}

// writeDefaultConfig writes the default settings as an indented JSON config
// file. The write is atomic so a crash cannot leave a half-written config.
func writeDefaultConfig(path string) error {
	data, err := json.MarshalIndent(defaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	data = append(data, '\n')
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := writeDefaultConfig(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "randomwriter.json", "Where to write the config file")

	return cmd
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/li4oya/paper-collect-and-analysis/pkg/types"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-collect.yaml or ~/.config/paper-collect/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults()
}

// setDefaults registers every configuration key so environment variables
// can override keys that no config file mentions.
func setDefaults() {
	viper.SetDefault("crawl.out_dir", "paper_collect")
	viper.SetDefault("crawl.parallelism", 1)
	viper.SetDefault("crawl.delay", time.Duration(0))
	viper.SetDefault("crawl.timeout", 30*time.Second)
	viper.SetDefault("crawl.user_agent", "")

	viper.SetDefault("annotate.provider", string(types.ProviderOpenAI))
	viper.SetDefault("annotate.model", "")
	viper.SetDefault("annotate.base_url", "")
	viper.SetDefault("annotate.api_key", "")
	viper.SetDefault("annotate.stream", false)
	viper.SetDefault("annotate.max_retries", 0)
	viper.SetDefault("annotate.timeout", 120*time.Second)
	viper.SetDefault("annotate.input", "")
	viper.SetDefault("annotate.labels", "labels.txt")
	viper.SetDefault("annotate.out_full", "")
	viper.SetDefault("annotate.out_keywords", "")

	viper.SetDefault("catalog.dir", "catalog")
	viper.SetDefault("catalog.max_results", 20)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-collect")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-collect"))
		}
	}

	viper.SetEnvPrefix("PAPER_COLLECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flag, environment, file, and default values.
func loadConfig() (types.Config, error) {
	var c types.Config
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return c, nil
}

// bindFlag ties a config key to a command flag. Only an explicitly set flag
// overrides the config file.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// apiKeyFor returns the configured API key, or the key file matching the
// provider in .secrets/.
func apiKeyFor(ai types.AIConfig) string {
	if ai.APIKey != "" {
		return ai.APIKey
	}
	return loadedSecrets.APIKey(ai.Provider)
}

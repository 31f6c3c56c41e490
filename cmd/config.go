/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/VeriWing/internal/config"
	"github.com/josephgoksu/VeriWing/types"
)

const (
	configName = ".veriwing"
	envPrefix  = "VERIWING"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single Validate instance; it caches struct info.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(cfg *types.AppConfig) error {
	return validate.Struct(cfg)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; it's okay if it doesn't exist.
	_ = godotenv.Load()

	// Environment variable handling must be set up BEFORE reading the
	// config file so env vars can influence config loading.
	viper.SetEnvPrefix(envPrefix) // e.g., VERIWING_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")

	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		// Project-specific config dir takes priority over home.
		projectConfigDir := viper.GetString("project.rootDir")
		if projectConfigDir == "" {
			projectConfigDir = ".veriwing"
		}
		if _, err := os.Stat(projectConfigDir); !os.IsNotExist(err) {
			viper.AddConfigPath(projectConfigDir)
			viper.SetConfigName(configName)
		} else {
			home, err := os.UserHomeDir()
			cobra.CheckErr(err)
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigName(configName)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	setDefaults()

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %s\n", err)
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("project.rootDir", ".veriwing")
	viper.SetDefault("project.reportPath", "report.md")
	viper.SetDefault("project.stagingDir", "staging")
	viper.SetDefault("project.backupsDir", "backups")
	viper.SetDefault("project.historyFile", "history.db")
	viper.SetDefault("project.backendsFile", "backends.yaml")

	viper.SetDefault("verify.strategy", config.DefaultStrategy)
	viper.SetDefault("verify.budget", config.DefaultBudget)
	viper.SetDefault("verify.scope", config.DefaultScope)

	viper.SetDefault("dispatch.globalConcurrency", config.DefaultGlobalConcurrency)
	viper.SetDefault("dispatch.requestTimeoutSeconds", config.DefaultRequestTimeoutSeconds)
	viper.SetDefault("dispatch.runTimeoutSeconds", config.DefaultRunTimeoutSeconds)
	viper.SetDefault("dispatch.retryBaseDelayMs", config.DefaultRetryBaseDelayMs)
	viper.SetDefault("dispatch.retryMaxDelayMs", config.DefaultRetryMaxDelayMs)

	viper.SetDefault("fixes.mode", config.DefaultFixMode)
	viper.SetDefault("fixes.autoApplyThreshold", config.DefaultAutoApplyThreshold)

	viper.SetDefault("telemetry.enabled", false)
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

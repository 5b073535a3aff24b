package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/optical-pos/internal"
)

var (
	configPath string
	loginUser  string
	loginPass  string
	langFlag   string
	clearData  bool
)

var rootCmd = &cobra.Command{
	Use:           "optical-pos",
	Short:         "Optical POS",
	Long:          `Shifts, stock and purchase order receiving for an optical store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	if os.Getenv("APP_ENV") == "production" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults lets a workstation run on a local sqlite file with no config.yml.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "optical-pos")
	v.SetDefault("app.lang", "en")
	v.SetDefault("app.command_timeout", "30s")
	v.SetDefault("app.instance_id", internal.DefaultInstanceID())
	v.SetDefault("database.driver", internal.DriverSQLite)
	v.SetDefault("database.source", "optical-pos.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.query_timeout", "5s")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("inventory.low_stock_threshold", 5)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yml")
	rootCmd.PersistentFlags().StringVarP(&loginUser, "user", "u", "", "operator username")
	rootCmd.PersistentFlags().StringVarP(&loginPass, "password", "p", "", "operator password (or POS_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "message language, overrides app.lang")

	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing stock and orders before seeding")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(operatorCmd)
	rootCmd.AddCommand(shiftCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(poCmd)
}

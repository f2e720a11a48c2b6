package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okravchenko/abook/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	dbType       string
	dbPath       string
	dbDSN        string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "abook",
	Short: "Contact book assistant",
	Long: `abook is a contact book assistant: it stores contacts with phone
numbers and birthdays, reports upcoming birthdays, and can run either as an
interactive bot, as one-shot CLI commands, or as an HTTP API server.

Run without arguments to start the interactive assistant.`,
	RunE: runAssistant,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.abook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbType, "db-type", "", "store backend: memory, sqlite or postgres (default sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database path (default $HOME/.abook/abook.db)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "dsn", "", "postgres connection string")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
}

// initConfig reads in config file and ABOOK_* environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".abook"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("abook")
	viper.AutomaticEnv()

	viper.BindEnv("db_type", "ABOOK_DB_TYPE")
	viper.BindEnv("db_path", "ABOOK_DB")
	viper.BindEnv("dsn", "ABOOK_DSN")

	// Config file is optional; flags win over config values
	if err := viper.ReadInConfig(); err == nil {
		if dbType == "" {
			dbType = viper.GetString("db_type")
		}
		if dbPath == "" {
			dbPath = viper.GetString("db_path")
		}
		if dbDSN == "" {
			dbDSN = viper.GetString("dsn")
		}
	}

	if dbType == "" && viper.GetString("db_type") != "" {
		dbType = viper.GetString("db_type")
	}
	if dbPath == "" && viper.GetString("db_path") != "" {
		dbPath = viper.GetString("db_path")
	}
	if dbDSN == "" && viper.GetString("dsn") != "" {
		dbDSN = viper.GetString("dsn")
	}

	if dbType == "" {
		dbType = "sqlite"
	}
	if dbPath == "" {
		dbPath = defaultDBPath()
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "abook.db"
	}
	dir := filepath.Join(home, ".abook")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "abook.db"
	}
	return filepath.Join(dir, "abook.db")
}

// storeConfig returns the resolved store configuration
func storeConfig() store.Config {
	return store.Config{
		Type: dbType,
		Path: dbPath,
		DSN:  dbDSN,
	}
}

// openStore opens the configured store backend
func openStore() (store.Store, error) {
	s, err := store.NewStore(storeConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

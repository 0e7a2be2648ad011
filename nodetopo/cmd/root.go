// Package cmd provides the command-line interface of nodetopo.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	envParams   = "NODETOPO_PARAMS"
	envLogLevel = "NODETOPO_LOG_LEVEL"

	envClickHouseHost     = "NODETOPO_CLICKHOUSE_HOST"
	envClickHousePort     = "NODETOPO_CLICKHOUSE_PORT"
	envClickHouseDB       = "NODETOPO_CLICKHOUSE_DB"
	envClickHouseUser     = "NODETOPO_CLICKHOUSE_USER"
	envClickHousePassword = "NODETOPO_CLICKHOUSE_PASSWORD"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nodetopo",
	Short: "nodetopo builds the component graph of simulated compute nodes.",
	Long: `nodetopo builds the component graph of simulated compute nodes ` +
		`from a YAML parameter file. It can record the graph into a SQLite ` +
		`or ClickHouse database and serve it over HTTP for inspection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setLogLevel(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	loadDotEnv()

	rootCmd.PersistentFlags().String("log-level", envOr(envLogLevel, "info"),
		"Log level: panic, fatal, error, warn, info, debug or trace.")
}

// loadDotEnv reads .env from the working directory if there is one.
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("Failed to load .env: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}

func setLogLevel(cmd *cobra.Command) error {
	levelName, _ := cmd.Flags().GetString("log-level")

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return err
	}

	logrus.SetLevel(level)

	return nil
}

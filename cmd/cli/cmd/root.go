package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// errReported is returned by commands that already printed their error.
var errReported = errors.New("error reported")

var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "Jobwatch shows what the job scheduler is doing",
	Long: `jobwatch is the command-line monitor for the job scheduler plugin.

It reads the scheduler's jobs, locks and execution history, correlates them
and prints filtered, paginated tables in the terminal.

Common workflows:

  List every scheduled job:
    jobwatch jobs

  Show jobs that currently hold a lock:
    jobwatch active

  Filter by job type and search:
    jobwatch jobs --type opendistro-ism --search rollover

  Show jobs per node:
    jobwatch nodes

  Show the execution history of one job:
    jobwatch history --job <job-id>

When the lock table cannot be read, running statuses are estimated from each
job's lock duration and marked with "~".

Configuration:
  Set the scheduler endpoint via flags, environment variables or a config file:
    JOBWATCH_URL        Scheduler URL (default: http://localhost:9200)
    JOBWATCH_TIMEOUT    HTTP timeout (default: 30s)
    JOBWATCH_TZ         Display timezone (default: Local)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors not already printed by a command
// are printed here.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".jobwatch"
		viper.AddConfigPath(home)
		viper.SetConfigName(".jobwatch")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "JOBWATCH_VARNAME"
	viper.SetEnvPrefix("JOBWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jobwatch.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:9200", "Job scheduler URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "HTTP timeout for scheduler requests")
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	rootCmd.PersistentFlags().String("tz", "Local", "Timezone for displayed times (e.g. UTC, Europe/Berlin)")
	viper.BindPFlag("tz", rootCmd.PersistentFlags().Lookup("tz"))
}

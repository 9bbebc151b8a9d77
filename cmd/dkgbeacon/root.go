package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set via ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dkgbeacon",
	Short: "Threshold DKG and randomness beacon",
	Long: `dkgbeacon runs a three-round distributed key generation among a fixed committee and
combines threshold signatures of its members into publicly verifiable randomness.

Use 'dkgbeacon simulate' to run a whole committee in-process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
		viper.SetEnvPrefix("DKGBEACON")
		viper.AutomaticEnv()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dkgbeacon version %s (%s, %s)\n", Version, GitCommit, runtime.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")
	mustBind("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log.json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(simulateCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/FIREFLY/internal/logging"
)

var (
	logLevel string
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "firefly",
	Short: "Firefly Algorithm for continuous optimization",
	Long: `firefly runs the Firefly Algorithm, a population-based stochastic
metaheuristic, against named benchmark objectives over box bounds, and can
render the 2D search trajectory as a contour image or animation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(&logging.Config{
			Level:  logLevel,
			Format: "json",
			Output: "stderr",
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

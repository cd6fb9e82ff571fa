package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"propertymatch/internal/config"
	"propertymatch/internal/logger"
)

var (
	verbose bool

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pmctl",
	Short: "Property Match CLI - ingest brochures and query the property corpus",
	Long: `pmctl extracts property records from PDF or text brochures, embeds them
into the configured corpus and runs preference searches against it.

Configuration is read from the environment (and an optional .env file),
the same way the server reads it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log = logger.New(logger.Config{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "pmctl",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

// Command journal records trades, reviews performance and tracks balances.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"trading-journal/internal/cli"
	"trading-journal/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	logger := logging.NewLogger()

	var closers []func() error
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close storage")
			}
		}
	}()

	rootCmd := cli.NewRootCmd(nil, logger, bootstrap(&closers))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

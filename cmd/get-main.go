package cmd

import (
	"fmt"
	"os"
	"path"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// getCmd represents the 'get' command
var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Get a single parameter value from the store",
	Args:  cobra.ExactArgs(1), //nolint:gomnd
	RunE:  runGet,
}

func init() {
	// add 'get' command to root command
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	parameterName := path.Join(pathSeparator, args[0])

	if err := validateParameterPathName(parameterName); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	store, err := getParameterStore()
	if err != nil {
		return fmt.Errorf("failed to get parameter store: %w", err)
	}

	log.Debugf("fetching parameter %s", parameterName)

	value, err := store.GetParameterValue(parameterName)
	if err != nil {
		return fmt.Errorf("failed to fetch parameter: %w", err)
	}

	fmt.Fprintf(os.Stdout, "%s\n", value)

	return nil
}

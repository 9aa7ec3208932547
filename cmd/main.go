package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/miloshr/psconf/paramstore"
)

// AppName - the name of the application.
const AppName = "psconf"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               AppName,
	Short:             "CLI for fetching and storing configuration in SSM Parameter Store",
	SilenceUsage:      true,
	PersistentPreRunE: registerBefore,
}

//nolint:lll
func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&globalBackend, "backend", "b", "ssm", `Backend to use
	ssm: SSM Parameter Store
	memory: in-memory store, for dry runs
`)
	rootCmd.PersistentFlags().IntVarP(&globalNumRetries, "retries", "r", defaultNumRetries,
		"For SSM, the number of retries to make before giving up")
}

func registerBefore(cmd *cobra.Command, args []string) error {
	// Update global flags (if anything changed from other sources).
	updateGlobals()

	if globalVerbose {
		log.SetLevel(log.DebugLevel)
		log.Debug("debug logging on")
	}

	return nil
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		if strings.Contains(err.Error(), "arg(s)") || strings.Contains(err.Error(), "usage") {
			cmd.Usage() //nolint:errcheck
		}

		os.Exit(globalErrorExitStatus)
	}
}

// memoryClient lives for the whole process, so every command in a run sees
// the same in-memory contents.
var memoryClient = paramstore.NewMemoryClient()

func getParameterStore() (*paramstore.ParameterStore, error) {
	backend := strings.ToLower(globalBackend)

	switch backend {
	case "memory":
		return paramstore.NewWithClient(memoryClient), nil
	case "ssm":
		return paramstore.New(globalNumRetries)
	default:
		return nil, fmt.Errorf("invalid backend `%s`", backend)
	}
}

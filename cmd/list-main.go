package cmd

import (
	"fmt"
	"os"
	"path"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/miloshr/psconf/paramstore"
)

// listCmd represents the 'list' command
var listCmd = &cobra.Command{
	Use:   "list <prefix>",
	Short: "List the parameters under a prefix",
	Args:  cobra.ExactArgs(1), //nolint:gomnd
	RunE:  runList,
}

var listParameters struct {
	WithValues bool
}

func init() {
	listCmd.Flags().BoolVarP(&listParameters.WithValues, "expand", "e", false, "Expand parameter list with values")
	// add 'list' command to root command
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	prefixPath := path.Join("/", args[0])

	if err := validateParameterPathName(prefixPath); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	store, err := getParameterStore()
	if err != nil {
		return fmt.Errorf("failed to get parameter store: %w", err)
	}

	params, err := store.GetParametersByPath(prefixPath, paramstore.Recursive())
	if err != nil {
		return fmt.Errorf("failed to list store contents (%s): %w", prefixPath, err)
	}

	values := flatStrings(params)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, '\t', 0)

	fmt.Fprint(w, "Key")

	if listParameters.WithValues {
		fmt.Fprint(w, "\tValue")
	}

	fmt.Fprintln(w, "")

	for _, key := range sortedKeys(values) {
		fmt.Fprint(w, key)

		if listParameters.WithValues {
			fmt.Fprintf(w, "\t%s", values[key])
		}

		fmt.Fprintln(w, "")
	}

	w.Flush()

	return nil
}

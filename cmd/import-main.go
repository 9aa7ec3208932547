package cmd

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"

	"github.com/ghodss/yaml"
	"github.com/jeremywohl/flatten"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// importCmd represents the 'import' command
var importCmd = &cobra.Command{
	Use:   "import <path> <file|->",
	Short: "Import parameters from file",
	Args:  cobra.ExactArgs(2), //nolint:gomnd
	RunE:  runImport,
}

var importParameters struct {
	Secret bool
}

func init() {
	importCmd.Flags().BoolVar(&importParameters.Secret, "secret", false, "Store the parameters as secrets")
	// add 'import' command to root command
	rootCmd.AddCommand(importCmd)
}

//nolint:funlen
func runImport(cmd *cobra.Command, args []string) error {
	importPathName := path.Join(pathSeparator, args[0])

	if err := validateParameterPathName(importPathName); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var in io.Reader

	file := args[1]
	if file == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		in = f
	}

	buf, err := ioutil.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var data map[string]interface{}

	if err := yaml.Unmarshal(buf, &data); err != nil {
		return fmt.Errorf("failed to decode input as JSON or YAML: %w", err)
	}

	toBeImported, err := flatten.Flatten(data, "", flatten.PathStyle)
	if err != nil {
		return fmt.Errorf("failed to flatten input: %w", err)
	}

	store, err := getParameterStore()
	if err != nil {
		return fmt.Errorf("failed to get parameter store: %w", err)
	}

	importedCount := 0

	for key, value := range toBeImported {
		parameterName := path.Join(importPathName, key)

		v := cast.ToString(value)
		if v == "" {
			continue
		}

		// Skip writing the parameter if both the value and the type are unchanged
		current, err := store.GetParameter(parameterName)
		if err == nil && current.Value == v && current.Secure == importParameters.Secret {
			continue
		}

		fmt.Printf("Importing `%s`\n", parameterName)

		if err := store.Put(parameterName, v, importParameters.Secret, true); err != nil {
			return fmt.Errorf("failed to write parameter `%s`: %w", parameterName, err)
		}

		importedCount++
	}

	fmt.Fprintf(os.Stdout, "Successfully imported %d/%d parameters\n", importedCount, len(toBeImported))

	return nil
}

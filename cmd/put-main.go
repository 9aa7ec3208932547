package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strings"

	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// putCmd represents the 'put' command
var putCmd = &cobra.Command{
	Use:   "put <name> [--] [<value|->]",
	Short: "Put a parameter value into the store",
	Args:  cobra.RangeArgs(1, 2), //nolint:gomnd
	RunE:  runPut,
}

var putParameters struct {
	Secret     bool
	Overwrite  bool
	Singleline bool
	File       string
	YamlNode   string
}

//nolint:lll
func init() {
	putCmd.Flags().BoolVar(&putParameters.Secret, "secret", false, "Store the value as a secret")
	putCmd.Flags().BoolVar(&putParameters.Overwrite, "overwrite", false, "Overwrite the parameter if it already exists")
	putCmd.Flags().BoolVarP(&putParameters.Singleline, "singleline", "s", false, "Insert single line parameter (end with \\n)")
	putCmd.Flags().StringVar(&putParameters.File, "file", "", "Read the value from a YAML or JSON file, converted to JSON before storing")
	putCmd.Flags().StringVar(&putParameters.YamlNode, "yaml-node", "", "Store only the named top level node of the file")
	// add 'put' command to root command
	rootCmd.AddCommand(putCmd)
}

//nolint:funlen
func runPut(cmd *cobra.Command, args []string) error {
	parameterName := path.Join(pathSeparator, args[0])

	if err := validateParameterPathName(parameterName); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var (
		value string
		err   error
	)

	switch {
	case len(args) == 2:
		value = args[1]
		if value == "-" {
			if value, err = readValueFromStdin(); err != nil {
				return err
			}
		}
	case putParameters.File != "":
		if value, err = readValueFromFile(putParameters.File, putParameters.YamlNode); err != nil {
			return err
		}
	default:
		return errors.New("either a value or --file must be specified")
	}

	store, err := getParameterStore()
	if err != nil {
		return fmt.Errorf("failed to get parameter store: %w", err)
	}

	// Skip writing the parameter if both the value and the type are unchanged
	current, err := store.GetParameter(parameterName)
	if err == nil && current.Value == value && current.Secure == putParameters.Secret {
		log.Debugf("parameter %s unchanged, skipping write", parameterName)
		return nil
	}

	if err := store.Put(parameterName, value, putParameters.Secret, putParameters.Overwrite); err != nil {
		return fmt.Errorf("failed to write parameter `%s`: %w", parameterName, err)
	}

	return nil
}

func readValueFromStdin() (string, error) {
	// Read value from standard input
	if putParameters.Singleline {
		buf := bufio.NewReader(os.Stdin)

		v, err := buf.ReadString('\n')
		if err != nil {
			return "", err
		}

		return strings.TrimSuffix(v, "\n"), nil
	}

	v, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}

	return string(v), nil
}

// readValueFromFile decodes a YAML or JSON document and re-encodes it, or a
// single top level node of it, as JSON.
func readValueFromFile(file, yamlNode string) (string, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var doc map[string]interface{}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to decode %s as YAML or JSON: %w", file, err)
	}

	node := interface{}(doc)

	if yamlNode != "" {
		n, ok := doc[yamlNode]
		if !ok {
			return "", fmt.Errorf("node `%s` not found in %s", yamlNode, file)
		}

		node = n
	}

	b, err := json.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s as JSON: %w", file, err)
	}

	return string(b), nil
}

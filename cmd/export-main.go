package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/miloshr/psconf/paramstore"
)

// exportCmd represents the 'export' command
var exportCmd = &cobra.Command{
	Use:   "export <prefix...>",
	Short: "Export parameters under the given prefixes in the specified format",
	Args:  cobra.MinimumNArgs(1), //nolint:gomnd
	RunE:  runExport,
}

var exportParameters struct {
	Recursive bool
	Nested    bool
	Required  []string
	Key       string
	Format    string
	Output    string
}

//nolint:lll
func init() {
	exportCmd.Flags().BoolVar(&exportParameters.Recursive, "recursive", false, "Include parameters nested more than one level below the prefix")
	exportCmd.Flags().BoolVar(&exportParameters.Nested, "nested", false, "Split keys on the path separator into a hierarchical document (json and yaml only)")
	exportCmd.Flags().StringSliceVar(&exportParameters.Required, "required", nil, "Relative keys that must be present under the prefix (single prefix only)")
	exportCmd.Flags().StringVarP(&exportParameters.Key, "key", "k", "", "Print only the value of this relative key")
	exportCmd.Flags().StringVarP(&exportParameters.Format, "format", "f", "json", "Output format (json, yaml, dotenv)")
	exportCmd.Flags().StringVarP(&exportParameters.Output, "output-file", "o", "", "Output file (default is standard output)")
	// add 'export' command to root command
	rootCmd.AddCommand(exportCmd)
}

//nolint:funlen
func runExport(cmd *cobra.Command, args []string) error {
	var err error

	if len(exportParameters.Required) > 0 && len(args) > 1 {
		return errors.New("--required supports a single prefix")
	}

	store, err := getParameterStore()
	if err != nil {
		return fmt.Errorf("failed to get parameter store: %w", err)
	}

	params := make(map[string]string)

	for _, arg := range args {
		prefixPath := path.Join("/", arg)

		if err := validateParameterPathName(prefixPath); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		opts := []paramstore.PathOption{}

		if exportParameters.Recursive {
			opts = append(opts, paramstore.Recursive())
		}

		if len(exportParameters.Required) > 0 {
			opts = append(opts, paramstore.Required(exportParameters.Required...))
		}

		fetched, err := store.GetParametersByPath(prefixPath, opts...)
		if err != nil {
			return fmt.Errorf("failed to fetch parameters (%s): %w", prefixPath, err)
		}

		log.Debugf("fetched %d parameters under %s", len(fetched), prefixPath)

		for k, v := range flatStrings(fetched) {
			if _, ok := params[k]; ok {
				fmt.Fprintf(os.Stderr, "warning: parameter %s specified more than once (overridden by prefix %s)\n", k, prefixPath)
			}

			params[k] = v
		}
	}

	if exportParameters.Key != "" {
		value, ok := params[exportParameters.Key]
		if !ok {
			return fmt.Errorf("key `%s` not found under the given prefixes", exportParameters.Key)
		}

		fmt.Fprintf(os.Stdout, "%s\n", value)

		return nil
	}

	file := os.Stdout

	if exportParameters.Output != "" {
		if file, err = os.OpenFile(exportParameters.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644); err != nil {
			return fmt.Errorf("failed to open output file for writing (%s): %w", exportParameters.Output, err)
		}
		defer file.Close()
	}

	w := bufio.NewWriter(file)
	defer w.Flush()

	switch strings.ToLower(exportParameters.Format) {
	case "json":
		err = exportAsJSON(params, exportParameters.Nested, w)
	case "yaml":
		err = exportAsYaml(params, exportParameters.Nested, w)
	case "dotenv":
		err = exportAsEnvFile(params, w)
	default:
		err = fmt.Errorf("unsupported export format: %s", exportParameters.Format)
	}

	if err != nil {
		return fmt.Errorf("unable to export parameters: %w", err)
	}

	return nil
}

func exportAsJSON(params map[string]string, nested bool, w io.Writer) error {
	// JSON like:
	// {"root":{"param1": "value1","param2": "value2"}}
	// or, without nesting:
	// {"root/param1": "value1","root/param2": "value2"}
	jsonObj, err := paramsToJSON(params, nested)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, jsonObj.String())

	return nil
}

func exportAsYaml(params map[string]string, nested bool, w io.Writer) error {
	// YAML like:
	// root:
	//   param1: "value1"
	//   param2: "value2"
	jsonObj, err := paramsToJSON(params, nested)
	if err != nil {
		return err
	}

	d, err := yaml.Marshal(jsonObj.Data())
	if err != nil {
		return fmt.Errorf("failed to marshal parameters to YAML: %w", err)
	}

	_, err = w.Write(d)
	if err != nil {
		return fmt.Errorf("failed to write bytes to Writer: %w", err)
	}

	return nil
}

// paramsToJSON builds a JSON document out of flat relative keys, either one
// top level entry per key or split into one object level per path segment.
func paramsToJSON(params map[string]string, nested bool) (*gabs.Container, error) {
	jsonObj := gabs.New()

	for k, v := range params {
		hierarchy := []string{k}

		if nested {
			hierarchy = strings.Split(k, pathSeparator)
		}

		if _, err := jsonObj.Set(v, hierarchy...); err != nil {
			return nil, fmt.Errorf("failed to set key %s to JSON: %w", k, err)
		}
	}

	return jsonObj, nil
}

func exportAsEnvFile(params map[string]string, w io.Writer) error {
	// Env like:
	// KEY=val
	// OTHER=otherval
	for _, k := range sortedKeys(params) {
		key := strings.ToUpper(k)
		key = strings.ReplaceAll(key, "/", "_")
		key = strings.ReplaceAll(key, "-", "_")
		key = strings.ReplaceAll(key, ".", "_")

		_, err := w.Write([]byte(fmt.Sprintf(`%s="%s"`+"\n", key, doubleQuoteEscape(params[k]))))
		if err != nil {
			return fmt.Errorf("failed to write param %s: %w", k, err)
		}
	}

	return nil
}

package paramstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrParameterNotFound is returned if the specified parameter is not
	// found in the parameter store.
	ErrParameterNotFound = errors.New("parameter not found")
)

// MissingParametersError reports required parameters that were absent from a
// path after a complete retrieval. Names carries every missing key, sorted,
// so operators can fix the store in one pass.
type MissingParametersError struct {
	Path  string
	Names []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("missing parameters [%s] on path %s", strings.Join(e.Names, " "), e.Path)
}

func assertRequired(required []string, params Parameters, path string) error {
	missing := []string{}

	for _, name := range required {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)

		return &MissingParametersError{Path: path, Names: missing}
	}

	return nil
}

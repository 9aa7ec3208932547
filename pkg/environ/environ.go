// Package environ loads parameter store configuration into a process
// environment, normalizing hierarchical keys to environment variable names.
package environ

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miloshr/psconf/paramstore"
)

// Environ is a slice of KEY=value strings, the same shape os.Environ returns.
type Environ []string

// StoreMissingKeyError occurs when a strict load finds an environment
// variable holding the sentinel value with no matching store key.
type StoreMissingKeyError struct {
	Key           string
	ValueExpected string
}

func (e StoreMissingKeyError) Error() string {
	return fmt.Sprintf("parameter store missing key for env var %s expected to hold %q", e.Key, e.ValueExpected)
}

// ExpectedKeyUnnormalizedError occurs when a strict load finds a sentinel
// environment variable whose name is not in normalized (upper-case) form, so
// no store key could ever fill it.
type ExpectedKeyUnnormalizedError struct {
	Key           string
	ValueExpected string
}

func (e ExpectedKeyUnnormalizedError) Error() string {
	return fmt.Sprintf("env var %s holds %q but is not in normalized form", e.Key, e.ValueExpected)
}

// IsSet reports whether key is present.
func (e Environ) IsSet(key string) bool {
	for i := range e {
		if strings.HasPrefix(e[i], key+"=") {
			return true
		}
	}

	return false
}

// Set adds or replaces key.
func (e *Environ) Set(key, val string) {
	e.Unset(key)
	*e = append(*e, key+"="+val)
}

// Unset removes key, if present.
func (e *Environ) Unset(key string) {
	for i := range *e {
		if strings.HasPrefix((*e)[i], key+"=") {
			*e = append((*e)[:i], (*e)[i+1:]...)
			return
		}
	}
}

// Map returns the environment as a key to value mapping. Later entries win
// on duplicate keys.
func (e Environ) Map() map[string]string {
	m := map[string]string{}

	for _, kv := range e {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}

		m[parts[0]] = parts[1]
	}

	return m
}

func fromMap(m map[string]string) Environ {
	e := make(Environ, 0, len(m))

	for k, v := range m {
		e = append(e, k+"="+v)
	}

	return e
}

// Load fetches every parameter under prefixPath recursively and sets each as
// an environment variable with a normalized name. Keys that overwrite an
// already-set variable are appended to collisions.
func (e *Environ) Load(ps *paramstore.ParameterStore, prefixPath string, collisions *[]string) error {
	params, err := ps.GetParametersByPath(prefixPath, paramstore.Recursive())
	if err != nil {
		return err
	}

	// sorted range, so later keys deterministically win on collisions
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value, ok := params[key].(string)
		if !ok {
			continue
		}

		envVarKey := configKeyToEnvVarName(key)

		if e.IsSet(envVarKey) && collisions != nil {
			*collisions = append(*collisions, envVarKey)
		}

		e.Set(envVarKey, value)
	}

	return nil
}

// LoadStrict fetches parameters under every prefix and fills only the
// environment variables currently holding strictValue. A sentinel variable
// with no matching parameter fails the load. When pristine is true the
// result contains only the filled variables.
func (e *Environ) LoadStrict(ps *paramstore.ParameterStore, strictValue string, pristine bool, prefixPaths ...string) error {
	params := map[string]string{}

	for _, prefixPath := range prefixPaths {
		fetched, err := ps.GetParametersByPath(prefixPath, paramstore.Recursive())
		if err != nil {
			return err
		}

		for key, value := range fetched {
			if s, ok := value.(string); ok {
				params[configKeyToEnvVarName(key)] = s
			}
		}
	}

	return e.loadStrict(params, strictValue, pristine)
}

func (e *Environ) loadStrict(params map[string]string, strictValue string, pristine bool) error {
	parentEnv := e.Map()

	keys := make([]string, 0, len(parentEnv))
	for key := range parentEnv {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var strictEnv Environ

	for _, key := range keys {
		value := parentEnv[key]

		if value != strictValue {
			if !pristine {
				strictEnv.Set(key, value)
			}

			continue
		}

		if key != strings.ToUpper(key) {
			return ExpectedKeyUnnormalizedError{Key: key, ValueExpected: strictValue}
		}

		paramValue, ok := params[key]
		if !ok {
			return StoreMissingKeyError{Key: key, ValueExpected: strictValue}
		}

		strictEnv.Set(key, paramValue)
	}

	*e = strictEnv

	return nil
}

// configKeyToEnvVarName converts a parameter key, relative or absolute, to
// an environment variable name: /svc/db-host becomes SVC_DB_HOST.
func configKeyToEnvVarName(key string) string {
	name := strings.TrimPrefix(key, "/")
	name = strings.ToUpper(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")

	return name
}

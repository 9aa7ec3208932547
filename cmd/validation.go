package cmd

import (
	"fmt"
	"regexp"
)

// Regex's used to validate inputs
var (
	validParameterPathFormat = regexp.MustCompile(`^[\/]*[\w\.\-]+(\/[\w\.\-]+)*$`)
)

//nolint:lll
func validateParameterPathName(parameterPath string) error {
	if !validParameterPathFormat.MatchString(parameterPath) {
		return fmt.Errorf(`failed to validate parameter path name '%s'
Only alphanumeric, dashes, forwardslashes, fullstops and underscores are allowed for parameter path names`, parameterPath)
	}

	return nil
}

package cmd

import (
	"sort"
	"strings"

	"github.com/miloshr/psconf/paramstore"
)

const doubleQuoteSpecialChars = "\\\n\r\"!$`"

// flatStrings keeps the string-valued entries of a flat parameter mapping.
func flatStrings(params paramstore.Parameters) map[string]string {
	m := make(map[string]string, len(params))

	for k, v := range params {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}

	return m
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, len(m))
	i := 0

	for k := range m {
		keys[i] = k
		i++
	}

	sort.Strings(keys)

	return keys
}

func doubleQuoteEscape(line string) string {
	for _, c := range doubleQuoteSpecialChars {
		toReplace := "\\" + string(c)

		if c == '\n' {
			toReplace = `\n`
		}

		if c == '\r' {
			toReplace = `\r`
		}

		line = strings.ReplaceAll(line, string(c), toReplace)
	}

	return line
}

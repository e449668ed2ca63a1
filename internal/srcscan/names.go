package srcscan

import (
	"regexp"
	"strings"
)

var nonIdentRune = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// ConvNameToC converts a device-tree name or compatible string into a valid
// C identifier: commas, dashes and dots become underscores, and anything
// else non-alphanumeric is likewise replaced.
func ConvNameToC(name string) string {
	s := strings.ReplaceAll(name, ",", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = nonIdentRune.ReplaceAllString(s, "_")
	return s
}

// GetCompatName maps a single compatible string to the driver/uclass name
// it would bind to, via ConvNameToC, honoring an optional alias table (a
// DM_DRIVER_ALIAS mapping of generated-name to actual driver name).
func GetCompatName(compat string, aliases map[string]string) string {
	name := ConvNameToC(compat)
	if real, ok := aliases[name]; ok {
		return real
	}
	return name
}

// aliasRe matches an /aliases node property name: one or more lowercase
// letters/digits/dashes ending in at least one letter, then digits.
var aliasRe = regexp.MustCompile(`^([a-z0-9-]+[a-z]+)([0-9]+)$`)

// ParseAliasName splits an /aliases property name into its uclass base
// string and sequence number, per spec.md's alias grammar.
func ParseAliasName(name string) (base string, seq int, ok bool) {
	m := aliasRe.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	n := 0
	for _, c := range m[2] {
		n = n*10 + int(c-'0')
	}
	return m[1], n, true
}

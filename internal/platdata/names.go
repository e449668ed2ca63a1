package platdata

import (
	"fmt"
	"strings"
)

func sprintfWarn(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// memberNameToC converts a property name into a valid C struct-member
// identifier: '@' becomes "_at_", and ',', '-', '.' become '_'.
func memberNameToC(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '@':
			b.WriteString("_at_")
		case ',', '-', '.':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nodeVarName converts a node's path into the C variable-name suffix used
// for its generated dtv_/U_BOOT_DRVINFO symbols: the leaf name plus its
// numeric index, so siblings sharing a unit-address base never collide.
func nodeVarName(path string, idx int) string {
	leaf := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		leaf = path[i+1:]
	}
	if leaf == "" {
		leaf = "root"
	}
	return fmt.Sprintf("%s_%d", memberNameToC(leaf), idx)
}

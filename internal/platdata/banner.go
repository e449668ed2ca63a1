package platdata

import (
	"fmt"
	"io"
	"strings"

	"github.com/tinyrange/dtoc/internal/fdt"
)

// Byte-exact lexical identifiers downstream U-Boot-style code depends on.
const (
	StructPrefix = "dtd_"
	ValPrefix    = "dtv_"

	valuesPerLine = 8
)

func writeBanner(w io.Writer, purpose string) {
	fmt.Fprintf(w, "/*\n * DO NOT MODIFY\n *\n * %s\n *\n * This file was generated by dtoc from a device tree.\n */\n\n", purpose)
}

// cTypeName returns the scalar C type used for a field of the given kind.
func cTypeName(k fdt.Kind) string {
	switch k {
	case fdt.KindInt:
		return "fdt32_t"
	case fdt.KindInt64:
		return "fdt64_t"
	case fdt.KindByte:
		return "unsigned char"
	case fdt.KindString:
		return "const char *"
	case fdt.KindBool:
		return "bool"
	default:
		return "fdt32_t"
	}
}

// tabTo pads s with tabs (8-column stops) until its next character would
// land at or past column col.
func tabTo(s string, col int) string {
	for len(expandTabs(s)) < col {
		s += "\t"
	}
	return s
}

func expandTabs(s string) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			next := ((col / 8) + 1) * 8
			for col < next {
				b.WriteByte(' ')
				col++
			}
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// chunkLines groups formatted scalar values into comma-joined lines of at
// most valuesPerLine entries, matching the original tool's aesthetic but
// byte-significant 8-per-line initializer wrapping.
func chunkLines(values []string, indent string) string {
	if len(values) == 0 {
		return ""
	}
	var lines []string
	for i := 0; i < len(values); i += valuesPerLine {
		end := i + valuesPerLine
		if end > len(values) {
			end = len(values)
		}
		lines = append(lines, indent+strings.Join(values[i:end], ", "))
	}
	return strings.Join(lines, ",\n")
}

// phandleStructName is the name of the per-arg-count phandle argument
// struct referenced by struct and platdata emission.
func phandleStructName(maxArgs int) string {
	return fmt.Sprintf("phandle_%d_arg", maxArgs)
}

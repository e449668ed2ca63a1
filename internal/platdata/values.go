package platdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyrange/dtoc/internal/fdt"
)

func quoteC(s string) string {
	return strconv.Quote(s)
}

// scalarFieldValue renders one struct member's initializer for dev, using
// the family-wide widened Field (for non-phandle members) or
// PhandleFieldLayout (for phandle members). A node missing the property
// entirely gets the zero value appropriate to the field's type/shape.
func (c *Compiler) scalarFieldValue(dev *Device, family, name string) string {
	if pl, ok := c.PhandleLayouts[family][name]; ok {
		return c.phandleFieldValue(dev, name, pl)
	}
	field := c.Layouts[family].Fields[name]
	p := dev.Node.Prop(name)
	isList := field.Kind != fdt.KindBool && field.MaxLen > 1

	if p == nil {
		return zeroValue(field, isList)
	}
	return formatValue(field.Kind, p, isList)
}

func zeroValue(field *Field, isList bool) string {
	switch field.Kind {
	case fdt.KindBool:
		return "false"
	case fdt.KindString:
		if !isList {
			return `""`
		}
		vals := make([]string, field.MaxLen)
		for i := range vals {
			vals[i] = `""`
		}
		return "{" + strings.Join(vals, ", ") + "}"
	default:
		if !isList {
			return "0x0"
		}
		vals := make([]string, field.MaxLen)
		for i := range vals {
			vals[i] = "0x0"
		}
		return "{" + strings.Join(vals, ", ") + "}"
	}
}

func formatValue(kind fdt.Kind, p *fdt.Prop, isList bool) string {
	switch kind {
	case fdt.KindBool:
		return boolStr(p.Bool)
	case fdt.KindString:
		if !isList {
			if len(p.Strings) == 0 {
				return `""`
			}
			return quoteC(p.Strings[0])
		}
		vals := make([]string, len(p.Strings))
		for i, s := range p.Strings {
			vals[i] = quoteC(s)
		}
		return "{" + chunkLines(vals, "") + "}"
	case fdt.KindInt:
		if !isList {
			if len(p.Ints) == 0 {
				return "0x0"
			}
			return fmt.Sprintf("0x%x", p.Ints[0])
		}
		vals := make([]string, len(p.Ints))
		for i, v := range p.Ints {
			vals[i] = fmt.Sprintf("0x%x", v)
		}
		return "{" + chunkLines(vals, "") + "}"
	case fdt.KindInt64:
		if !isList {
			if len(p.Int64s) == 0 {
				return "0x0"
			}
			return fmt.Sprintf("0x%x", p.Int64s[0])
		}
		vals := make([]string, len(p.Int64s))
		for i, v := range p.Int64s {
			vals[i] = fmt.Sprintf("0x%x", v)
		}
		return "{" + chunkLines(vals, "") + "}"
	case fdt.KindByte:
		if !isList {
			if len(p.Bytes) == 0 {
				return "0x0"
			}
			return fmt.Sprintf("0x%x", p.Bytes[0])
		}
		vals := make([]string, len(p.Bytes))
		for i, v := range p.Bytes {
			vals[i] = fmt.Sprintf("0x%x", v)
		}
		return "{" + chunkLines(vals, "") + "}"
	}
	return "0x0"
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// phandleFieldValue renders a phandle member as
// {{target-idx, {arg0, arg1, ...}}, ...}, one entry per resolved tuple,
// padded with empty entries up to pl.MaxCount.
func (c *Compiler) phandleFieldValue(dev *Device, name string, pl *PhandleFieldLayout) string {
	field := dev.Phandles[name]
	var entries []string
	if field != nil {
		for _, t := range field.Tuples {
			args := make([]string, pl.MaxArgs)
			for i := range args {
				if i < len(t.Args) {
					args[i] = fmt.Sprintf("0x%x", t.Args[i])
				} else {
					args[i] = "0x0"
				}
			}
			entries = append(entries, fmt.Sprintf("{%d, {%s}}", t.TargetIdx, strings.Join(args, ", ")))
		}
	}
	for len(entries) < pl.MaxCount {
		args := make([]string, pl.MaxArgs)
		for i := range args {
			args[i] = "0x0"
		}
		entries = append(entries, fmt.Sprintf("{-1, {%s}}", strings.Join(args, ", ")))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

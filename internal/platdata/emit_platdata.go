package platdata

import (
	"fmt"
	"io"
)

// EmitPlatdata writes dt-plat.c in non-instantiated mode: one static
// struct plus U_BOOT_DRVINFO per valid node, per spec.md §4.7.
func (c *Compiler) EmitPlatdata(w io.Writer) error {
	writeBanner(w, "Generated platform data")
	for _, dev := range c.Devices {
		if dev.Driver == nil {
			continue
		}
		fmt.Fprintf(w, "static struct %s%s %s%s = {\n", StructPrefix, dev.StructName, ValPrefix, dev.CName)
		for _, name := range c.fieldNames(dev.StructName) {
			member := memberNameToC(name)
			value := c.scalarFieldValue(dev, dev.StructName, name)
			fmt.Fprintf(w, "\t%s= %s,\n", tabTo("."+member, 24), value)
		}
		fmt.Fprintf(w, "};\n")

		parentIdx := -1
		if dev.Parent != nil {
			parentIdx = dev.Parent.Idx
		}
		fmt.Fprintf(w, "U_BOOT_DRVINFO(%s) = {\n", dev.CName)
		fmt.Fprintf(w, "\t.name\t\t= %q,\n", dev.StructName)
		fmt.Fprintf(w, "\t.plat\t\t= &%s%s,\n", ValPrefix, dev.CName)
		fmt.Fprintf(w, "\t.plat_size\t= sizeof(%s%s),\n", ValPrefix, dev.CName)
		fmt.Fprintf(w, "\t.parent_idx\t= %d,\n", parentIdx)
		fmt.Fprintf(w, "};\n\n")
	}
	return nil
}

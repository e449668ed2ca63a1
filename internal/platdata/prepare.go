package platdata

import "github.com/tinyrange/dtoc/internal/fdt"

// isDisabled reports whether a node's status property marks it disabled.
func isDisabled(n *fdt.Node) bool {
	status := n.Prop("status")
	if status == nil {
		return false
	}
	if len(status.Strings) == 0 {
		return false
	}
	return status.Strings[0] == "disabled"
}

// isValid reports whether n qualifies as a device per spec.md's Node
// invariant: the root node only when explicitly requested, otherwise a
// compatible property and not disabled (unless includeDisabled is set).
func (c *Compiler) isValid(n *fdt.Node) bool {
	if n == c.Fdt.GetRoot() {
		return c.AddRoot
	}
	if !n.HasProp("compatible") {
		return false
	}
	if !c.IncludeDisabled && isDisabled(n) {
		return false
	}
	return true
}

// PrepareNodes walks the tree depth-first and builds the ordered Devices
// list of every valid node, assigning each its numeric index, C variable
// name, and struct-family name. Struct-family resolution may record a
// missing-driver warning without failing the pass; DriverNotFound is only
// raised later, during ProcessNodes, when NeedDrivers is set.
func (c *Compiler) PrepareNodes() {
	root := c.Fdt.GetRoot()
	idx := 0
	root.Walk(func(n *fdt.Node) {
		if !c.isValid(n) {
			return
		}
		compats := compatStrings(n)
		structName, missing := c.Scanner.ResolveCompatName(compats, n == root)
		if missing {
			c.warn("node %s: no driver found for compatible(s) %v", n.Path, compats)
		}
		dev := &Device{
			Node:       n,
			Idx:        idx,
			CName:      nodeVarName(n.Path, idx),
			StructName: structName,
		}
		idx++
		c.Devices = append(c.Devices, dev)
		c.ByPath[n.Path] = dev
	})
}

func compatStrings(n *fdt.Node) []string {
	p := n.Prop("compatible")
	if p == nil {
		return nil
	}
	return p.Strings
}

package platdata

import "github.com/tinyrange/dtoc/internal/srcscan"

// ReadAliases parses the /aliases node (if present): each property name
// must match the uclass-base-plus-sequence grammar, and its string value
// names the target node by path. The resolved (sequence, node) pair is
// registered on the named uclass's alias tables so AssignSeqs honors it.
func (c *Compiler) ReadAliases() error {
	aliases := c.Fdt.GetNode("/aliases")
	if aliases == nil {
		return nil
	}
	for _, name := range aliases.PropNames() {
		base, seq, ok := srcscan.ParseAliasName(name)
		if !ok {
			return &BindingError{Node: "/aliases", Reason: "alias property " + name + " does not match the required form"}
		}
		uclass, ok := c.Scanner.UclassByName[base]
		if !ok {
			return &BindingError{Node: "/aliases", Reason: "alias " + name + " names unknown uclass " + base}
		}
		prop := aliases.Prop(name)
		if len(prop.Strings) == 0 {
			continue
		}
		targetPath := prop.Strings[0]
		if _, ok := c.ByPath[targetPath]; !ok {
			continue // not a bound device; nothing to assign a sequence to
		}
		uclass.AliasByNum[seq] = targetPath
		uclass.AliasByPath[targetPath] = seq
	}
	return nil
}

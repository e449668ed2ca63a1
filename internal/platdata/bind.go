package platdata

// ProcessNodes matches each valid node to a driver and uclass, per
// spec.md §4.6. Devices are appended to their uclass's and parent's
// ordered lists in source order; AssignSeqs later turns that registration
// order (plus any /aliases overrides) into final sequence numbers.
func (c *Compiler) ProcessNodes() error {
	c.UclassOrder = map[string][]*Device{}
	c.ParentChildren = map[string][]*Device{}

	for _, dev := range c.Devices {
		driver, ok := c.Scanner.LookupDriverByCompat(dev.StructName)
		if !ok {
			if !c.NeedDrivers {
				continue
			}
			return &BindingError{Node: dev.Node.Path, Reason: "no driver found for " + dev.StructName}
		}
		driver.Used = true
		dev.Driver = driver

		uclass, ok := c.Scanner.Uclasses[driver.UclassID]
		if !ok {
			if c.NeedDrivers {
				return &BindingError{Node: dev.Node.Path, Reason: "no uclass found for driver " + driver.Name}
			}
		} else {
			dev.Uclass = uclass
			c.UclassOrder[uclass.Name] = append(c.UclassOrder[uclass.Name], dev)
		}

		if dev.Node.Parent != nil {
			if parentDev, ok := c.ByPath[dev.Node.Parent.Path]; ok {
				dev.Parent = parentDev
				c.ParentChildren[parentDev.Node.Path] = append(c.ParentChildren[parentDev.Node.Path], dev)
			}
		}
	}
	return nil
}

package platdata

import (
	"fmt"
	"io"
)

// driverDataValue renders the .driver_data initializer: the data literal
// attached to the first of the node's compatible strings that the driver
// also declares, or 0x0 if none carried a value.
func driverDataValue(dev *Device) string {
	if dev.Driver == nil {
		return "0x0"
	}
	p := dev.Node.Prop("compatible")
	if p == nil {
		return "0x0"
	}
	for _, compat := range p.Strings {
		if data, ok := dev.Driver.Compat[compat]; ok && data != "" {
			return data
		}
	}
	return "0x0"
}

// autoField renders one auto-allocated private/plat storage member: a
// zero-initialized static of the driver's recorded size, plus the pointer
// expression DM_DEVICE_INST's field should hold (nil when the driver
// declares no auto size for that slot).
func autoField(w io.Writer, varName, autoSize string) string {
	if autoSize == "" || autoSize == "0" {
		return "NULL"
	}
	fmt.Fprintf(w, "static char %s[%s] __attribute__((section(\".priv_data\")));\n", varName, autoSize)
	return varName
}

// EmitDevice writes dt-device.c: instantiated DM_DEVICE_INST entries for
// every bound device, per spec.md §4.7, wiring the uclass, sibling and
// child doubly-linked lists ProcessNodes recorded in UclassOrder and
// ParentChildren (Testable Property 6: sibling-list consistency).
func (c *Compiler) EmitDevice(w io.Writer) error {
	writeBanner(w, "Generated instantiated devices")

	root := c.Fdt.GetRoot()
	for _, dev := range c.Devices {
		if dev.Node.Parent != nil && dev.Node.Parent != root && dev.Parent == nil {
			return &ParentMissingError{Node: dev.Node.Path, Parent: dev.Node.Parent.Path}
		}
	}

	for _, dev := range c.Devices {
		if dev.Driver == nil {
			continue
		}

		plat := autoField(w, "dtv_"+dev.CName+"_plat", dev.Driver.PlatAuto)
		priv := autoField(w, "dtv_"+dev.CName+"_priv", dev.Driver.PrivAuto)
		var uclassPlat, uclassPriv string
		if dev.Uclass != nil {
			uclassPlat = autoField(w, "dtv_"+dev.CName+"_uc_plat", dev.Uclass.PerDevicePlatAuto)
			uclassPriv = autoField(w, "dtv_"+dev.CName+"_uc_priv", dev.Uclass.PerDeviceAuto)
		} else {
			uclassPlat, uclassPriv = "NULL", "NULL"
		}
		var parentPlat, parentPriv string
		if dev.Parent != nil && dev.Parent.Driver != nil {
			parentPlat = autoField(w, "dtv_"+dev.CName+"_parent_plat", dev.Parent.Driver.PerChildPlatAuto)
			parentPriv = autoField(w, "dtv_"+dev.CName+"_parent_priv", dev.Parent.Driver.PerChildAuto)
		} else {
			parentPlat, parentPriv = "NULL", "NULL"
		}

		var uclassName string
		if dev.Uclass != nil {
			uclassName = dev.Uclass.Name
		}
		uclassSiblings := c.UclassOrder[uclassName]
		uclassMember := func(i int) string { return siblingNodeRef(uclassSiblings[i].CName) }
		var ucLinks linkEnds
		ucIdx := -1
		for i, d := range uclassSiblings {
			if d == dev {
				ucIdx = i
				break
			}
		}
		if ucIdx >= 0 {
			ucLinks = listLinks(uclassDevHeadRef(uclassName), uclassMember, len(uclassSiblings), ucIdx)
		}

		children := c.ParentChildren[dev.Node.Path]
		childMember := func(i int) string { return siblingNodeRef(children[i].CName) }
		childHead := headLinks(childHeadRef(dev.CName), childMember, len(children))

		var siblingLinks linkEnds
		if dev.Parent != nil {
			siblings := c.ParentChildren[dev.Parent.Node.Path]
			siblingMember := func(i int) string { return siblingNodeRef(siblings[i].CName) }
			idx := -1
			for i, d := range siblings {
				if d == dev {
					idx = i
					break
				}
			}
			if idx >= 0 {
				siblingLinks = listLinks(childHeadRef(dev.Parent.CName), siblingMember, len(siblings), idx)
			}
		} else {
			// Top-level devices (fdt parent is the root, which has no
			// DM_DEVICE_INST unless AddRoot was set) are a self-loop: there
			// is no synthetic root device to chain them under.
			siblingLinks = linkEnds{Next: siblingNodeRef(dev.CName), Prev: siblingNodeRef(dev.CName)}
		}

		fmt.Fprintf(w, "%s = {\n", deviceInstRef(dev.CName))
		fmt.Fprintf(w, "\t.driver\t\t= DM_DRIVER_REF(%s),\n", dev.Driver.Name)
		fmt.Fprintf(w, "\t.name\t\t= %q,\n", dev.StructName)
		fmt.Fprintf(w, "\t.plat_\t\t= %s,\n", plat)
		fmt.Fprintf(w, "\t.priv_\t\t= %s,\n", priv)
		fmt.Fprintf(w, "\t.uclass_plat_\t= %s,\n", uclassPlat)
		fmt.Fprintf(w, "\t.uclass_priv_\t= %s,\n", uclassPriv)
		fmt.Fprintf(w, "\t.parent_plat_\t= %s,\n", parentPlat)
		fmt.Fprintf(w, "\t.parent_priv_\t= %s,\n", parentPriv)
		if dev.Uclass != nil {
			fmt.Fprintf(w, "\t.uclass\t\t= DM_UCLASS_REF(%s),\n", dev.Uclass.Name)
		}
		fmt.Fprintf(w, "\t.uclass_node\t= { .next = %s, .prev = %s },\n", ucLinks.Next, ucLinks.Prev)
		fmt.Fprintf(w, "\t.child_head\t= { .next = %s, .prev = %s },\n", childHead.Next, childHead.Prev)
		fmt.Fprintf(w, "\t.sibling_node\t= { .next = %s, .prev = %s },\n", siblingLinks.Next, siblingLinks.Prev)
		fmt.Fprintf(w, "\t.driver_data\t= %s,\n", driverDataValue(dev))
		fmt.Fprintf(w, "\t.seq_\t\t= %d,\n", dev.Seq)
		fmt.Fprintf(w, "};\n\n")
	}
	return nil
}

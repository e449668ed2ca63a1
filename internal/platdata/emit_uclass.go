package platdata

import (
	"fmt"
	"io"
	"sort"

	"github.com/tinyrange/dtoc/internal/srcscan"
)

// EmitUclass writes dt-uclass.c: one DM_UCLASS_INST per uclass that has at
// least one bound device, chained into a single uclass_head doubly-linked
// list in uclass-id order, each with its own dev_head chaining the
// uclass's devices in binding order.
func (c *Compiler) EmitUclass(w io.Writer) error {
	writeBanner(w, "Generated instantiated uclasses")

	uclasses := map[string]*srcscan.UclassDriver{}
	for _, dev := range c.Devices {
		if dev.Uclass != nil {
			uclasses[dev.Uclass.Name] = dev.Uclass
		}
	}
	names := make([]string, 0, len(uclasses))
	for n := range uclasses {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return uclasses[names[i]].UclassID < uclasses[names[j]].UclassID
	})

	uclassMember := func(i int) string { return uclassSiblingRef(names[i]) }

	for i, name := range names {
		uc := uclasses[name]
		links := listLinks("&uclass_head", uclassMember, len(names), i)

		devs := c.UclassOrder[name]
		devMember := func(j int) string { return siblingNodeRef(devs[j].CName) }
		devHead := headLinks(uclassDevHeadRef(name), devMember, len(devs))

		privAuto := uc.PrivAuto
		priv := "NULL"
		if privAuto != "" && privAuto != "0" {
			fmt.Fprintf(w, "static char dtv_uc_priv_%s[%s] __attribute__((section(\".priv_data\")));\n", name, privAuto)
			priv = "dtv_uc_priv_" + name
		}

		fmt.Fprintf(w, "%s = {\n", uclassInstRef(name))
		fmt.Fprintf(w, "\t.uc_drv\t\t= DM_UCLASS_DRIVER_REF(%s),\n", name)
		fmt.Fprintf(w, "\t.sibling_node\t= { .next = %s, .prev = %s },\n", links.Next, links.Prev)
		fmt.Fprintf(w, "\t.dev_head\t= { .next = %s, .prev = %s },\n", devHead.Next, devHead.Prev)
		fmt.Fprintf(w, "\t.priv_\t\t= %s,\n", priv)
		fmt.Fprintf(w, "};\n\n")
	}

	fmt.Fprintf(w, "struct list_head uclass_head = {\n")
	if len(names) == 0 {
		fmt.Fprintf(w, "\t.next = &uclass_head,\n\t.prev = &uclass_head,\n")
	} else {
		fmt.Fprintf(w, "\t.next = %s,\n\t.prev = %s,\n", uclassSiblingRef(names[0]), uclassSiblingRef(names[len(names)-1]))
	}
	fmt.Fprintf(w, "};\n")
	return nil
}

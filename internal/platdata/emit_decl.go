package platdata

import (
	"fmt"
	"io"
	"sort"

	"github.com/tinyrange/dtoc/internal/srcscan"
)

// EmitDecl writes dt-decl.h: extern forward-declarations for every bound
// driver (and, in instantiated mode, its DM_DEVICE_INST) plus every used
// uclass (and its DM_UCLASS_INST).
func (c *Compiler) EmitDecl(w io.Writer) error {
	writeBanner(w, "Generated extern declarations")

	seenDrivers := map[string]bool{}
	for _, dev := range c.Devices {
		if dev.Driver == nil || seenDrivers[dev.Driver.Name] {
			continue
		}
		seenDrivers[dev.Driver.Name] = true
		fmt.Fprintf(w, "extern U_BOOT_DRIVER(%s);\n", dev.Driver.Name)
	}
	if c.Instantiate {
		for _, dev := range c.Devices {
			if dev.Driver == nil {
				continue
			}
			fmt.Fprintf(w, "extern DM_DEVICE_INST(%s);\n", dev.CName)
		}
	}

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
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "extern UCLASS_DRIVER(%s);\n", n)
		if c.Instantiate {
			fmt.Fprintf(w, "extern DM_UCLASS_INST(%s);\n", n)
		}
	}
	return nil
}

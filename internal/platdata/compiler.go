package platdata

import (
	"github.com/tinyrange/dtoc/internal/fdt"
	"github.com/tinyrange/dtoc/internal/srcscan"
)

// PhandleTuple is one resolved (target, args...) observation of a
// phandle-bearing property.
type PhandleTuple struct {
	TargetIdx int
	Args      []uint32
}

// PhandleField is the per-property result of phandle resolution: the
// widest arg count seen (used to size the emitted array) and one tuple per
// list entry, in property order.
type PhandleField struct {
	MaxArgs int
	Tuples  []PhandleTuple
}

// Device is a valid node enriched with everything the binding stage
// computes: its driver, uclass, sequence numbers, and phandle fields. It
// plays the role spec.md's Data Model describes as the node's "derived
// during preparation" attributes, kept out of fdt.Node so that package has
// no dependency on srcscan.
type Device struct {
	Node       *fdt.Node
	Idx        int
	CName      string
	StructName string

	Driver *srcscan.Driver
	Uclass *srcscan.UclassDriver

	Seq       int
	ParentSeq int
	Parent    *Device

	Phandles map[string]*PhandleField
}

// Compiler runs the full scan->prepare->widen->phandles->bind->aliases->
// seqs->emit pipeline spec.md describes, over one Fdt and one Scanner.
type Compiler struct {
	Fdt     *fdt.Fdt
	Scanner *srcscan.Scanner

	AddRoot         bool
	IncludeDisabled bool
	NeedDrivers     bool
	Instantiate     bool

	Devices []*Device
	ByPath  map[string]*Device

	// UclassOrder lists, per uclass name, its bound devices in binding
	// (source) order. ParentChildren lists, per parent node path, its
	// valid children in binding order. Both are populated by
	// ProcessNodes and consumed by the instantiated-mode emitters to
	// build doubly-linked-list initializers.
	UclassOrder    map[string][]*Device
	ParentChildren map[string][]*Device

	// Layouts is the per-struct-family widened field layout computed by
	// ScanStructs, keyed by StructName.
	Layouts map[string]*FamilyLayout
	// PhandleLayouts is the per-struct-family phandle field layout
	// computed by ScanPhandles, keyed by StructName then property name.
	PhandleLayouts map[string]map[string]*PhandleFieldLayout

	Warnings []string
}

// NewCompiler constructs a Compiler ready for PrepareNodes.
func NewCompiler(f *fdt.Fdt, s *srcscan.Scanner) *Compiler {
	return &Compiler{
		Fdt:         f,
		Scanner:     s,
		NeedDrivers: true,
		ByPath:      map[string]*Device{},
		Layouts:     map[string]*FamilyLayout{},
	}
}

func (c *Compiler) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, sprintfWarn(format, args...))
}

// Run executes every pipeline stage in spec.md §2's fixed order.
func (c *Compiler) Run() error {
	c.PrepareNodes()
	if err := c.ScanRegSizes(); err != nil {
		return err
	}
	c.ScanStructs()
	if err := c.ScanPhandles(); err != nil {
		return err
	}
	if err := c.ProcessNodes(); err != nil {
		return err
	}
	if err := c.ReadAliases(); err != nil {
		return err
	}
	c.AssignSeqs()
	c.Scanner.DriverWarnings()
	c.Warnings = append(c.Warnings, c.Scanner.Warnings...)
	return nil
}

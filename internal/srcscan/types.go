package srcscan

// Driver mirrors one U_BOOT_DRIVER(...) declaration recovered from the C
// tree.
type Driver struct {
	Name     string
	File     string
	UclassID string
	// Compat maps a compatible string to its driver-data literal (may be
	// empty string if none given).
	Compat map[string]string
	// CompatOrder lists the compatibles in sorted order (the scanner does
	// not keep the id table's declaration order); FirstCompat returns its
	// first entry.
	CompatOrder []string

	PrivAuto         string
	PlatAuto         string
	PerChildAuto     string
	PerChildPlatAuto string

	Phase   string // "", "spl", "tpl"
	Headers []string

	Used     bool
	Dups     []*Driver
	WarnDups bool
	Uclass   *UclassDriver
}

// FirstCompat returns the first declared compatible string, or "" if none.
func (d *Driver) FirstCompat() string {
	if len(d.CompatOrder) == 0 {
		return ""
	}
	return d.CompatOrder[0]
}

// UclassDriver mirrors one UCLASS_DRIVER(...) declaration.
type UclassDriver struct {
	Name     string
	UclassID string

	PrivAuto          string
	PerDeviceAuto     string
	PerDevicePlatAuto string
	PerChildAuto      string
	PerChildPlatAuto  string

	// AliasByNum and AliasByPath are the two alias tables populated during
	// device binding (4.6): AliasByNum is the sequence->node assignment,
	// AliasByPath lets repeated lookups of the same node return the same
	// sequence number.
	AliasByNum  map[int]string // seq -> node path
	AliasByPath map[string]int // node path -> seq

	// Devices is not filled in by the scanner or by binding; the bound
	// devices of a uclass, in registration order, are tracked in
	// platdata's Compiler.UclassOrder.
	Devices []string
}

// Struct mirrors one `struct NAME { ... };` header declaration.
type Struct struct {
	Name       string
	HeaderPath string // path relative to include/, asm-rewritten if needed
}

func newUclassDriver(name, id string) *UclassDriver {
	return &UclassDriver{
		Name:        name,
		UclassID:    id,
		AliasByNum:  map[int]string{},
		AliasByPath: map[string]int{},
	}
}

package srcscan

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type scanState int

const (
	stateOutside scanState = iota
	stateInDriver
	stateInUclass
	stateInIDs
)

var (
	reUBootDriver  = regexp.MustCompile(`^U_BOOT_DRIVER\(([A-Za-z0-9_]+)\)`)
	reUclassDriver = regexp.MustCompile(`^UCLASS_DRIVER\(([A-Za-z0-9_]+)\)`)
	reCloseBody    = regexp.MustCompile(`^\};`)
	reID           = regexp.MustCompile(`\.id\s*=\s*(UCLASS_[A-Za-z0-9_]+)`)
	reOfMatch      = regexp.MustCompile(`\.of_match\s*=\s*(?:of_match_ptr\()?([A-Za-z0-9_]+)(.*)$`)
	rePrivAuto     = regexp.MustCompile(`\.priv_auto\s*=\s*sizeof\(struct\s+([A-Za-z0-9_]+)\)`)
	rePlatAuto     = regexp.MustCompile(`\.plat_auto\s*=\s*sizeof\(struct\s+([A-Za-z0-9_]+)\)`)
	rePerChildAuto = regexp.MustCompile(`\.per_child_auto\s*=\s*sizeof\(struct\s+([A-Za-z0-9_]+)\)`)
	rePerChildPlat = regexp.MustCompile(`\.per_child_plat_auto\s*=\s*sizeof\(struct\s+([A-Za-z0-9_]+)\)`)
	rePerDevAuto   = regexp.MustCompile(`\.per_device_auto\s*=\s*sizeof\(struct\s+([A-Za-z0-9_]+)\)`)
	rePerDevPlat   = regexp.MustCompile(`\.per_device_plat_auto\s*=\s*sizeof\(struct\s+([A-Za-z0-9_]+)\)`)
	rePhase        = regexp.MustCompile(`DM_PHASE\("([a-z]+)"\)`)
	reHeader       = regexp.MustCompile(`DM_HEADER\(<([^>]+)>\)`)
	reIDTable      = regexp.MustCompile(`^(?:static\s+)?(?:const\s+)?struct\s+udevice_id\s+([A-Za-z0-9_]+)\[\]\s*=`)
	reIDEntry      = regexp.MustCompile(`\{\s*\.compatible\s*=\s*"([^"]+)"\s*(?:,\s*\.data\s*=\s*([A-Za-z0-9_]+))?\s*,?\s*\}`)
	reAlias        = regexp.MustCompile(`DM_DRIVER_ALIAS\(([A-Za-z0-9_]+),\s*([A-Za-z0-9_]+)\)`)
	reStructDecl   = regexp.MustCompile(`^struct\s+([A-Za-z0-9_]+)\s*\{$`)
)

// pendingDriver accumulates a driver's fields while its body is open.
type pendingDriver struct {
	name       string
	file       string
	uclassID   string
	ofMatchVar string
	ofMatchBad bool
	privAuto   string
	platAuto   string
	perChild   string
	perChPlat  string
	phase      string
	headers    []string
}

// pendingUclass accumulates a uclass driver's fields while its body is
// open.
type pendingUclass struct {
	name       string
	uclassID   string
	privAuto   string
	perDevAuto string
	perDevPlat string
	perChild   string
	perChPlat  string
}

// Scanner accumulates the cross-file index built by scanning a C/H source
// tree: drivers, uclass drivers, structs, and the DM_DRIVER_ALIAS table.
// ScanFile uses no Scanner and may run concurrently for different files;
// Merge is not safe for concurrent use and is called single-threaded by
// the caller in a deterministic file order.
type Scanner struct {
	Drivers  map[string]*Driver
	Uclasses map[string]*UclassDriver // keyed by UclassID (e.g. "UCLASS_GPIO"), for driver binding
	// UclassByName is Uclasses keyed by its short name (e.g. "gpio"
	// from UCLASS_DRIVER(gpio)), for /aliases resolution.
	UclassByName map[string]*UclassDriver
	Structs      map[string]*Struct
	DriverAlias  map[string]string // alias name -> real driver name
	Warnings     []string

	compatIndex compatIndex
}

// NewScanner returns an empty Scanner ready for ScanFile/Merge calls.
func NewScanner() *Scanner {
	return &Scanner{
		Drivers:      map[string]*Driver{},
		Uclasses:     map[string]*UclassDriver{},
		UclassByName: map[string]*UclassDriver{},
		Structs:      map[string]*Struct{},
		DriverAlias:  map[string]string{},
	}
}

// fileResult holds the drivers/uclasses/structs/aliases recovered from one
// source file, to be merged into a shared Scanner in file order.
type fileResult struct {
	file     string
	drivers  []*Driver
	uclasses []*UclassDriver
	structs  []*Struct
	aliases  map[string]string
	warnings []string
}

// ScanFile dispatches a single file's content to the driver or struct
// scanner based on its extension, and returns the drivers/uclasses/structs
// it declares without merging them into the shared tables yet.
func ScanFile(path string, data []byte) (*fileResult, error) {
	res := &fileResult{file: path, aliases: map[string]string{}}
	if strings.HasSuffix(path, ".c") {
		drivers, uclasses, aliases, warnings, err := scanDriverFile(path, data)
		if err != nil {
			return nil, err
		}
		res.drivers = drivers
		res.uclasses = uclasses
		res.aliases = aliases
		res.warnings = warnings
	} else if strings.HasSuffix(path, ".h") {
		res.structs = scanStructFile(path, data)
	}
	return res, nil
}

// scanLines splits data into logical lines with backslash-continuation
// joined.
func scanLines(data []byte) []string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, MaxLineLength), MaxLineLength)

	var lines []string
	var cont strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimRight(line, " \t\r")
		if strings.HasSuffix(trimmed, "\\") {
			cont.WriteString(strings.TrimSuffix(trimmed, "\\"))
			continue
		}
		if cont.Len() > 0 {
			cont.WriteString(trimmed)
			lines = append(lines, cont.String())
			cont.Reset()
			continue
		}
		lines = append(lines, trimmed)
	}
	if cont.Len() > 0 {
		lines = append(lines, cont.String())
	}
	return lines
}

func scanDriverFile(path string, data []byte) ([]*Driver, []*UclassDriver, map[string]string, []string, error) {
	var drivers []*Driver
	var uclasses []*UclassDriver
	var warnings []string
	aliases := map[string]string{}
	idTables := map[string]map[string]string{}

	state := stateOutside
	var pd pendingDriver
	var pu pendingUclass
	var curTable string

	for lineNum, raw := range scanLines(data) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch state {
		case stateOutside:
			if m := reUBootDriver.FindStringSubmatch(line); m != nil {
				state = stateInDriver
				pd = pendingDriver{name: m[1], file: path}
				continue
			}
			if m := reUclassDriver.FindStringSubmatch(line); m != nil {
				state = stateInUclass
				pu = pendingUclass{name: m[1]}
				continue
			}
			if m := reIDTable.FindStringSubmatch(line); m != nil {
				state = stateInIDs
				curTable = m[1]
				idTables[curTable] = map[string]string{}
				continue
			}
			if m := reAlias.FindStringSubmatch(line); m != nil {
				aliases[m[1]] = m[2]
				continue
			}

		case stateInIDs:
			if reCloseBody.MatchString(line) {
				state = stateOutside
				continue
			}
			if m := reIDEntry.FindStringSubmatch(line); m != nil {
				idTables[curTable][m[1]] = m[2]
			}

		case stateInDriver:
			if reCloseBody.MatchString(line) {
				state = stateOutside
				if pd.ofMatchBad {
					warnings = append(warnings, fmt.Sprintf(
						"%s:%d: driver %s: of_match suffix after %s is not \")\" or \"),\"",
						path, lineNum+1, pd.name, pd.ofMatchVar))
				}
				driver, err := finishDriver(pd, idTables, path, lineNum+1)
				if err != nil {
					return nil, nil, nil, nil, err
				}
				if driver != nil {
					drivers = append(drivers, driver)
				}
				continue
			}
			if m := reID.FindStringSubmatch(line); m != nil {
				pd.uclassID = m[1]
			} else if m := reOfMatch.FindStringSubmatch(line); m != nil {
				pd.ofMatchVar = m[1]
				if strings.TrimSpace(m[2]) != ")," && strings.TrimSpace(m[2]) != ")" {
					pd.ofMatchBad = true
				}
			} else if m := rePrivAuto.FindStringSubmatch(line); m != nil {
				pd.privAuto = m[1]
			} else if m := rePlatAuto.FindStringSubmatch(line); m != nil {
				pd.platAuto = m[1]
			} else if m := rePerChildAuto.FindStringSubmatch(line); m != nil {
				pd.perChild = m[1]
			} else if m := rePerChildPlat.FindStringSubmatch(line); m != nil {
				pd.perChPlat = m[1]
			} else if m := rePhase.FindStringSubmatch(line); m != nil {
				pd.phase = m[1]
			} else if m := reHeader.FindStringSubmatch(line); m != nil {
				pd.headers = append(pd.headers, m[1])
			}

		case stateInUclass:
			if reCloseBody.MatchString(line) {
				state = stateOutside
				uclasses = append(uclasses, finishUclass(pu))
				continue
			}
			if m := reID.FindStringSubmatch(line); m != nil {
				pu.uclassID = m[1]
			} else if m := rePrivAuto.FindStringSubmatch(line); m != nil {
				pu.privAuto = m[1]
			} else if m := rePerDevAuto.FindStringSubmatch(line); m != nil {
				pu.perDevAuto = m[1]
			} else if m := rePerDevPlat.FindStringSubmatch(line); m != nil {
				pu.perDevPlat = m[1]
			} else if m := rePerChildAuto.FindStringSubmatch(line); m != nil {
				pu.perChild = m[1]
			} else if m := rePerChildPlat.FindStringSubmatch(line); m != nil {
				pu.perChPlat = m[1]
			}
		}
	}

	return drivers, uclasses, aliases, warnings, nil
}

func finishDriver(pd pendingDriver, idTables map[string]map[string]string, path string, line int) (*Driver, error) {
	if pd.uclassID == "" {
		return nil, &ParseError{File: path, Line: line, Message: ErrMissingUclass.Error()}
	}
	table, ok := idTables[pd.ofMatchVar]
	if pd.ofMatchVar != "" && !ok {
		return nil, &ParseError{File: path, Line: line, Message: ErrUnknownOfMatch.Error()}
	}
	d := &Driver{
		Name:             pd.name,
		File:             pd.file,
		UclassID:         pd.uclassID,
		Compat:           map[string]string{},
		PrivAuto:         pd.privAuto,
		PlatAuto:         pd.platAuto,
		PerChildAuto:     pd.perChild,
		PerChildPlatAuto: pd.perChPlat,
		Phase:            pd.phase,
		Headers:          pd.headers,
	}
	if table != nil {
		// Compatibles are recorded in sorted order; the id table's
		// declaration order is not kept, so "first compatible" is the
		// alphabetically smallest one.
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d.Compat[k] = table[k]
			d.CompatOrder = append(d.CompatOrder, k)
		}
	} else if pd.name != "root_driver" {
		return nil, &ParseError{File: path, Line: line, Message: ErrMissingCompatible.Error()}
	}
	return d, nil
}

func finishUclass(pu pendingUclass) *UclassDriver {
	u := newUclassDriver(pu.name, pu.uclassID)
	u.PrivAuto = pu.privAuto
	u.PerDeviceAuto = pu.perDevAuto
	u.PerDevicePlatAuto = pu.perDevPlat
	u.PerChildAuto = pu.perChild
	u.PerChildPlatAuto = pu.perChPlat
	return u
}

func scanStructFile(path string, data []byte) []*Struct {
	var structs []*Struct
	headerPath := toHeaderPath(path)
	for _, raw := range scanLines(data) {
		line := strings.TrimRight(raw, " \t")
		if m := reStructDecl.FindStringSubmatch(line); m != nil {
			structs = append(structs, &Struct{Name: m[1], HeaderPath: headerPath})
		}
	}
	return structs
}

// toHeaderPath returns the path a generated #include should reference: the
// portion after "include/", with an asm/ prefix substituted for any
// arch/<arch>/include/asm/ prefix so the generated code stays
// architecture-generic.
func toHeaderPath(path string) string {
	const asmMarker = "/include/asm/"
	if idx := strings.Index(path, asmMarker); idx >= 0 {
		return "asm/" + path[idx+len(asmMarker):]
	}
	const includeMarker = "include/"
	if idx := strings.LastIndex(path, includeMarker); idx >= 0 {
		return path[idx+len(includeMarker):]
	}
	return path
}

package srcscan

import "sort"

// compatIndex maps a normalized (C-identifier) compatible string to the
// name of the driver that claims it, with ties broken in favor of the
// alphabetically smallest driver name. It is derived, not maintained
// incrementally, since it depends on the full set of scanned drivers.
type compatIndex map[string]string

// BuildCompatIndex derives the compatible->driver lookup table from every
// currently-known driver's compatible table.
func (s *Scanner) BuildCompatIndex() {
	claims := map[string][]string{}
	for _, d := range s.Drivers {
		for compat := range d.Compat {
			id := ConvNameToC(compat)
			claims[id] = append(claims[id], d.Name)
		}
	}
	idx := make(compatIndex, len(claims))
	for id, names := range claims {
		sort.Strings(names)
		idx[id] = names[0]
	}
	s.compatIndex = idx
}

// LookupDriverByCompat resolves a normalized compatible identifier to a
// driver, following one level of DM_DRIVER_ALIAS indirection and the
// alphabetically-smallest-name tie-break among drivers sharing a
// compatible string.
func (s *Scanner) LookupDriverByCompat(compatID string) (*Driver, bool) {
	if name, ok := s.compatIndex[compatID]; ok {
		d, ok := s.Drivers[name]
		return d, ok
	}
	if real := GetCompatName(compatID, s.DriverAlias); real != compatID {
		d, ok := s.Drivers[real]
		return d, ok
	}
	return nil, false
}

// ResolveCompatName computes the normalized struct-family name for a node
// given its ordered `compatible` strings: the first that resolves to a
// known driver (directly or via alias) wins; if none resolve, the first
// identifier is returned and missingDriver is true so the caller can
// record a warning. The root node (isRoot) is always "root_driver".
func (s *Scanner) ResolveCompatName(compats []string, isRoot bool) (name string, missingDriver bool) {
	if isRoot {
		return "root_driver", false
	}
	for _, c := range compats {
		id := ConvNameToC(c)
		if _, ok := s.LookupDriverByCompat(id); ok {
			return id, false
		}
	}
	if len(compats) == 0 {
		return "", true
	}
	return ConvNameToC(compats[0]), true
}

package srcscan

import (
	"fmt"
	"sort"
)

// Merge folds one file's scan results into the shared tables, applying the
// duplicate-driver resolution rule: when a driver name has already been
// seen, the one whose phase tag matches targetPhase wins and the other
// joins its Dups list; when neither (or both) carry a matching phase, the
// most-recently-scanned driver wins. WarnDups is set, so the emitter can
// flag the ambiguity, only when neither driver carries any phase tag.
// Merge must be called in a fixed, deterministic file
// order (e.g. sorted path order) for duplicate resolution to be
// reproducible across runs.
func (s *Scanner) Merge(res *fileResult, targetPhase string) {
	for name, real := range res.aliases {
		s.DriverAlias[name] = real
	}
	for _, st := range res.structs {
		s.Structs[st.Name] = st
	}
	for _, d := range res.uclasses {
		s.Uclasses[d.UclassID] = d
		s.UclassByName[d.Name] = d
	}
	for _, d := range res.drivers {
		existing, ok := s.Drivers[d.Name]
		if !ok {
			s.Drivers[d.Name] = d
			continue
		}
		winner, loser := resolveDuplicate(existing, d, targetPhase)
		winner.Dups = append(winner.Dups, loser)
		if winner.Phase == "" && loser.Phase == "" {
			winner.WarnDups = true
		}
		s.Drivers[d.Name] = winner
	}
	s.Warnings = append(s.Warnings, res.warnings...)
}

// resolveDuplicate decides which of two same-named drivers is kept live in
// the index. If exactly one has a phase tag equal to targetPhase, it wins
// outright. Otherwise the most recently scanned (b, since callers merge in
// file order) wins.
func resolveDuplicate(a, b *Driver, targetPhase string) (winner, loser *Driver) {
	aMatches := a.Phase == targetPhase
	bMatches := b.Phase == targetPhase
	switch {
	case bMatches && !aMatches:
		return b, a
	case aMatches && !bMatches:
		return a, b
	default:
		return b, a
	}
}

// Warn records a free-form scan warning, grouped later by driver name at
// emission time.
func (s *Scanner) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// DriverWarnings raises the duplicate-driver ambiguity warning spec.md §7
// describes, for every driver whose WarnDups flag Merge raised (no phase
// tag disambiguated it) and which was actually bound to a node by a
// subsequent ProcessNodes pass. An unused duplicate never produces
// ambiguous output, so it is silently dropped. Must be called after
// binding has set Used.
func (s *Scanner) DriverWarnings() {
	names := make([]string, 0, len(s.Drivers))
	for name := range s.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := s.Drivers[name]
		if !d.WarnDups || !d.Used {
			continue
		}
		files := make([]string, len(d.Dups))
		for i, dup := range d.Dups {
			files[i] = dup.File
		}
		s.Warn("driver %s (compatible %q): ambiguous duplicate declarations in %v, using %s",
			name, d.FirstCompat(), files, d.File)
	}
}


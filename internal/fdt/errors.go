package fdt

import "fmt"

// InputError reports a malformed or unreadable FDT blob, or a duplicate
// phandle discovered while scanning it.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("fdt: %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("fdt: %s", e.Reason)
}

// InvariantError reports a structural precondition violated by a caller.
// No function in this package currently returns it: Refresh reports its
// name/subnode-count mismatches as InternalMismatch.
type InvariantError struct {
	Node   string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("fdt: invariant violated at %q: %s", e.Node, e.Reason)
}

// InternalMismatch is raised by Refresh when the blob no longer agrees with
// the cached tree shape (name or subnode count mismatch at a known offset).
type InternalMismatch struct {
	Node   string
	Reason string
}

func (e *InternalMismatch) Error() string {
	return fmt.Sprintf("fdt: internal mismatch at %q: %s", e.Node, e.Reason)
}

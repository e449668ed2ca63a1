package platdata

import "fmt"

// BindingError reports a node that could not be matched to a driver or
// uclass, or an /aliases entry naming an unknown uclass.
type BindingError struct {
	Node   string
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("platdata: %s: %s", e.Node, e.Reason)
}

// InvariantError reports a structural precondition spec.md requires of the
// input tree: a reg-bearing node whose parent carries no properties, or a
// reg cell count that isn't a multiple of (na+ns).
type InvariantError struct {
	Node   string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("platdata: invariant violated at %q: %s", e.Node, e.Reason)
}

// PhandleError reports a phandle-bearing property that could not be
// resolved: a zero-terminated tuple referencing a missing target node, or
// a target node missing the #foo-cells property its consumer needs.
type PhandleError struct {
	Node, Prop, Reason string
}

func (e *PhandleError) Error() string {
	return fmt.Sprintf("platdata: %s.%s: %s", e.Node, e.Prop, e.Reason)
}

// UnsupportedCommandError reports an unrecognized emit command.
type UnsupportedCommandError struct {
	Command string
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("platdata: unsupported command %q", e.Command)
}

// ParentMissingError reports a valid node whose fdt parent is not the root
// and is not itself a valid device (whether or not it carries a compatible
// property), so instantiated-mode emission has no DM_DEVICE_INST to link it
// under.
type ParentMissingError struct {
	Node, Parent string
}

func (e *ParentMissingError) Error() string {
	return fmt.Sprintf("platdata: %s: parent %q was not bound to a device", e.Node, e.Parent)
}

package platdata

import "fmt"

// linkEnds is the C initializer pair for one doubly-linked-list head: what
// its .next and .prev point at, given an ordered member list addressed by
// memberRef.
type linkEnds struct{ Next, Prev string }

// headLinks computes a list head's own .next/.prev, and listLinks computes
// one member's .next/.prev, for a circular doubly-linked list of n members
// referenced by memberRef(i) and rooted at headRef. An empty list is a
// self-loop. This directly realizes the sibling-list consistency property:
// head.next == &first.sibling, each member chains to the next, and the
// last member's .next wraps back to the head.
func headLinks(headRef string, memberRef func(i int) string, n int) linkEnds {
	if n == 0 {
		return linkEnds{Next: headRef, Prev: headRef}
	}
	return linkEnds{Next: memberRef(0), Prev: memberRef(n - 1)}
}

func listLinks(headRef string, memberRef func(i int) string, n, i int) linkEnds {
	next := headRef
	if i+1 < n {
		next = memberRef(i + 1)
	}
	prev := headRef
	if i > 0 {
		prev = memberRef(i - 1)
	}
	return linkEnds{Next: next, Prev: prev}
}

func deviceInstRef(cname string) string   { return fmt.Sprintf("DM_DEVICE_INST(%s)", cname) }
func siblingNodeRef(cname string) string  { return fmt.Sprintf("&DM_DEVICE_INST(%s).sibling_node", cname) }
func uclassInstRef(name string) string    { return fmt.Sprintf("DM_UCLASS_INST(%s)", name) }
func uclassDevHeadRef(name string) string { return fmt.Sprintf("&DM_UCLASS_INST(%s).dev_head", name) }
func childHeadRef(cname string) string    { return fmt.Sprintf("&DM_DEVICE_INST(%s).child_head", cname) }
func uclassSiblingRef(name string) string { return fmt.Sprintf("&DM_UCLASS_INST(%s).sibling_node", name) }

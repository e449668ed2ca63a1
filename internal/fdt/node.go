package fdt

// Node is one tree node layered over the packed blob. Parent is nil only
// for the tree root. Offset is -1 when the node has never been synced (a
// freshly inserted subnode) or when the offset cache has been invalidated.
type Node struct {
	Fdt      *Fdt
	Parent   *Node
	Offset   int
	Name     string
	Path     string
	Children []*Node
	propList []string
	Props    map[string]*Prop
}

func newNode(f *Fdt, parent *Node, name string, offset int) *Node {
	path := name
	if parent != nil {
		if parent.Path == "/" {
			path = "/" + name
		} else {
			path = parent.Path + "/" + name
		}
	} else {
		path = "/"
		name = ""
	}
	return &Node{Fdt: f, Parent: parent, Offset: offset, Name: name, Path: path, Props: map[string]*Prop{}}
}

// PropNames returns property names in FDT (insertion) order.
func (n *Node) PropNames() []string {
	return append([]string(nil), n.propList...)
}

// Prop looks up a property by name, returning nil if absent.
func (n *Node) Prop(name string) *Prop {
	return n.Props[name]
}

// HasProp reports whether the node carries a named property.
func (n *Node) HasProp(name string) bool {
	_, ok := n.Props[name]
	return ok
}

func (n *Node) addPropObj(p *Prop) {
	if _, exists := n.Props[p.Name]; !exists {
		n.propList = append(n.propList, p.Name)
	}
	p.Node = n
	n.Props[p.Name] = p
}

// addProp creates or replaces the named property from raw blob bytes,
// during Scan/Refresh.
func (n *Node) addProp(name string, raw []byte, offset int) *Prop {
	p := newProp(n, name, raw, offset)
	n.addPropObj(p)
	return p
}

// getOrAddProp returns the named property, creating an empty placeholder
// dirty property if absent, for the Set* family of editors.
func (n *Node) getOrAddProp(name string) *Prop {
	if p, ok := n.Props[name]; ok {
		return p
	}
	p := &Prop{Node: n, Name: name, Offset: -1, Dirty: true}
	n.addPropObj(p)
	return p
}

// SetInt sets (creating if absent) a single-cell integer property.
func (n *Node) SetInt(name string, v uint32) { n.getOrAddProp(name).SetInt(v) }

// SetInts sets (creating if absent) an integer-list property.
func (n *Node) SetInts(name string, v []uint32) { n.getOrAddProp(name).SetInts(v) }

// SetData sets (creating if absent) a raw byte-string property.
func (n *Node) SetData(name string, v []byte) { n.getOrAddProp(name).SetData(v) }

// SetString sets (creating if absent) a single string property.
func (n *Node) SetString(name string, v string) { n.getOrAddProp(name).SetString(v) }

// SetStringList sets (creating if absent) a string-list property.
func (n *Node) SetStringList(name string, v []string) { n.getOrAddProp(name).SetStringList(v) }

// AddEmptyProp adds (or replaces with) an empty boolean-flag property.
func (n *Node) AddEmptyProp(name string) { n.getOrAddProp(name).SetEmpty() }

// DeleteProp removes a property by name, invalidating the FDT's offset
// cache since every following sibling property's offset has shifted.
func (n *Node) DeleteProp(name string) {
	if _, ok := n.Props[name]; !ok {
		return
	}
	delete(n.Props, name)
	for i, pn := range n.propList {
		if pn == name {
			n.propList = append(n.propList[:i], n.propList[i+1:]...)
			break
		}
	}
	n.Fdt.invalidate()
}

// AddSubnode appends a new, unsynced child node at the end of n's child
// list.
func (n *Node) AddSubnode(name string) *Node {
	child := newNode(n.Fdt, n, name, -1)
	n.Children = append(n.Children, child)
	n.Fdt.invalidate()
	return child
}

// InsertSubnode inserts a new, unsynced child at the front of n's child
// list. Because the underlying blob format always adds new nodes before
// existing siblings, every sibling's cached offset becomes stale; they are
// purged here and recreated by the next Sync/Refresh.
func (n *Node) InsertSubnode(name string) *Node {
	child := newNode(n.Fdt, n, name, -1)
	for _, sib := range n.Children {
		sib.purgeOffsets()
	}
	n.Children = append([]*Node{child}, n.Children...)
	n.Fdt.invalidate()
	return child
}

// MoveToFirst reorders n to be the first child of its parent. Because the
// reorder only takes effect in the blob on the next Sync, every sibling
// that used to precede n has its cached offset purged so it is recreated
// in the new position.
func (n *Node) MoveToFirst() {
	if n.Parent == nil {
		return
	}
	siblings := n.Parent.Children
	idx := -1
	for i, c := range siblings {
		if c == n {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	for _, sib := range siblings[:idx] {
		sib.purgeOffsets()
	}
	reordered := make([]*Node, 0, len(siblings))
	reordered = append(reordered, n)
	reordered = append(reordered, siblings[:idx]...)
	reordered = append(reordered, siblings[idx+1:]...)
	n.Parent.Children = reordered
	n.Fdt.invalidate()
}

// Delete removes n from its parent's child list entirely.
func (n *Node) Delete() {
	if n.Parent == nil {
		return
	}
	siblings := n.Parent.Children
	for i, c := range siblings {
		if c == n {
			n.Parent.Children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.Fdt.forgetPhandle(n)
	n.Fdt.invalidate()
}

func (n *Node) purgeOffsets() {
	n.Offset = -1
	for _, p := range n.Props {
		p.Offset = -1
	}
	for _, c := range n.Children {
		c.purgeOffsets()
	}
}

// Subnode looks up a direct child by name.
func (n *Node) Subnode(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Walk invokes fn for n and every descendant, depth-first pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// mergeProps copies properties present in src but absent from n (except
// `phandle`, unless copyPhandles is set): a property n already carries is
// never overwritten, so repeated merges from several sources layer rather
// than clobber each other.
func (n *Node) mergeProps(src *Node, copyPhandles bool) {
	for _, name := range src.propList {
		if name == "phandle" && !copyPhandles {
			continue
		}
		if n.HasProp(name) {
			continue
		}
		sp := src.Props[name]
		np := &Prop{Node: n, Name: name, Offset: -1, Dirty: true,
			Kind: sp.Kind, Scalar: sp.Scalar, Bool: sp.Bool}
		np.Strings = append([]string(nil), sp.Strings...)
		np.Ints = append([]uint32(nil), sp.Ints...)
		np.Int64s = append([]uint64(nil), sp.Int64s...)
		np.Bytes = append([]byte(nil), sp.Bytes...)
		n.addPropObj(np)
	}
}

// CopyNode merges src into n: if a same-named child of n already exists it
// is moved to the front and merged recursively (properties not already
// present are added, children copy-merged in turn); otherwise the subtree
// is inserted whole at the front of n's child list. At the top level the
// `phandle` property is never copied, to avoid two nodes aliasing one
// phandle; recursive sub-copies do copy it, since in that case the copy is
// standing in for the original node entirely.
//
// Children are recursed in reverse source order: each recursive copyNode
// inserts its destination at the front, so processing src's children back
// to front restores their original relative order in dst.
func (n *Node) CopyNode(src *Node) *Node {
	return n.copyNode(src, false)
}

func (n *Node) copyNode(src *Node, copyPhandles bool) *Node {
	dst := n.Subnode(src.Name)
	if dst != nil {
		dst.MoveToFirst()
	} else {
		dst = n.InsertSubnode(src.Name)
	}
	dst.mergeProps(src, copyPhandles)
	for i := len(src.Children) - 1; i >= 0; i-- {
		dst.copyNode(src.Children[i], true)
	}
	return dst
}

// CopySubnodesFromPhandles copies, for every phandle in phandles (a list
// of uint32 phandle values), that target node's children into n and merges
// the target node's own properties (excluding `phandle`) into n. Phandles
// and each target's children are processed in reverse order: since copyNode
// always inserts a new child at the front of n's list, working back to
// front restores the listed (resp. source) order in n's final child list.
func (n *Node) CopySubnodesFromPhandles(phandles []uint32) error {
	for i := len(phandles) - 1; i >= 0; i-- {
		ph := phandles[i]
		if ph == 0 {
			continue
		}
		src, ok := n.Fdt.phandleToNode[ph]
		if !ok {
			return &InputError{Reason: "no node for phandle while copying subnodes"}
		}
		for j := len(src.Children) - 1; j >= 0; j-- {
			n.copyNode(src.Children[j], false)
		}
		n.mergeProps(src, false)
	}
	return nil
}

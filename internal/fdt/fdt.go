package fdt

// Fdt is the mutable tree layered over a packed blob: the root node, a
// phandle lookup table, and an offset-cache validity flag shared by every
// Node/Prop reachable from root.
type Fdt struct {
	Filename string
	blob     []byte
	root     *Node
	valid    bool

	phandleToNode map[uint32]*Node
}

// FromBytes parses a packed FDT blob and returns a scanned tree.
func FromBytes(filename string, data []byte) (*Fdt, error) {
	f := &Fdt{Filename: filename, blob: data}
	if err := f.Scan(); err != nil {
		return nil, err
	}
	return f, nil
}

// New returns an empty Fdt with only a root node, for building a tree from
// scratch (tests, synthetic fixtures).
func New() *Fdt {
	f := &Fdt{phandleToNode: map[uint32]*Node{}}
	f.root = newNode(f, nil, "", -1)
	f.valid = false
	return f
}

// GetRoot returns the tree root.
func (f *Fdt) GetRoot() *Node { return f.root }

// GetNode looks up a node by absolute path ("/" or "/soc/uart@0").
func (f *Fdt) GetNode(path string) *Node {
	if path == "/" || path == "" {
		return f.root
	}
	cur := f.root
	for _, part := range splitPath(path) {
		cur = cur.Subnode(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	if len(path) > 0 && path[0] == '/' {
		start = 1
	}
	cur := start
	for i := start; i < len(path); i++ {
		if path[i] == '/' {
			if i > cur {
				parts = append(parts, path[cur:i])
			}
			cur = i + 1
		}
	}
	if cur < len(path) {
		parts = append(parts, path[cur:])
	}
	return parts
}

// LookupPhandle returns the node owning the given non-zero phandle value,
// or nil if none.
func (f *Fdt) LookupPhandle(ph uint32) *Node {
	return f.phandleToNode[ph]
}

func (f *Fdt) forgetPhandle(n *Node) {
	for ph, node := range f.phandleToNode {
		if node == n {
			delete(f.phandleToNode, ph)
		}
	}
}

func (f *Fdt) invalidate() { f.valid = false }

// CheckCache refreshes the offset cache if it has been invalidated by a
// structural mutation since the last read.
func (f *Fdt) CheckCache() error {
	if f.valid {
		return nil
	}
	return f.Refresh()
}

// Scan walks the blob once, building the Node tree depth-first and the
// phandle lookup map. It fails on a duplicate non-zero phandle.
func (f *Fdt) Scan() error {
	hdr, err := parseHeader(f.blob)
	if err != nil {
		return err
	}
	r := &structReader{
		data:    f.blob[hdr.offStruct : hdr.offStruct+hdr.sizeStruct],
		strings: f.blob[hdr.offStrings : hdr.offStrings+hdr.sizeStrings],
	}
	f.phandleToNode = map[uint32]*Node{}

	root, err := f.scanNode(r, nil, int(hdr.offStruct))
	if err != nil {
		return err
	}
	f.root = root
	f.valid = true
	return nil
}

// scanNode consumes one FDT_BEGIN_NODE..FDT_END_NODE span. base is the
// struct block's absolute offset in the blob; it is added to the reader's
// block-local offsets to record each Node/Prop's absolute blob offset.
func (f *Fdt) scanNode(r *structReader, parent *Node, base int) (*Node, error) {
	tok := r.next()
	if tok != tokenBeginNode {
		return nil, &InputError{Reason: "expected FDT_BEGIN_NODE"}
	}
	nameOff := base + r.off
	name := r.nodeName()
	node := newNode(f, parent, name, nameOff)

	for {
		save := r.off
		tok := r.next()
		switch tok {
		case tokenNop:
			continue
		case tokenProp:
			propOff := base + save
			pname, value := r.prop()
			p := node.addProp(pname, value, propOff)
			if pname == "phandle" || pname == "linux,phandle" {
				if len(p.Ints) == 1 && p.Ints[0] != 0 {
					ph := p.Ints[0]
					if _, dup := f.phandleToNode[ph]; dup {
						return nil, &InputError{Reason: "duplicate phandle " + node.Path}
					}
					f.phandleToNode[ph] = node
				}
			}
		case tokenBeginNode:
			r.off = save
			child, err := f.scanNode(r, node, base)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		case tokenEndNode:
			return node, nil
		case tokenEnd:
			return node, nil
		default:
			return nil, &InputError{Reason: "unexpected struct token"}
		}
	}
}

// Refresh re-derives every cached offset by rescanning the blob and
// asserting the recorded tree shape still matches: node names and subnode
// counts at each known offset must agree, or InternalMismatch is raised.
func (f *Fdt) Refresh() error {
	old := f.root
	if err := f.Scan(); err != nil {
		return err
	}
	if old != nil {
		if err := checkShape(old, f.root); err != nil {
			return err
		}
	}
	return nil
}

func checkShape(old, fresh *Node) error {
	if old.Name != fresh.Name {
		return &InternalMismatch{Node: old.Path, Reason: "name changed across refresh"}
	}
	if len(old.Children) != len(fresh.Children) {
		return &InternalMismatch{Node: old.Path, Reason: "subnode count changed across refresh"}
	}
	for i, c := range old.Children {
		if err := checkShape(c, fresh.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Sync writes every dirty property and newly inserted subnode back to the
// blob. Because this implementation always regenerates the struct and
// strings blocks wholesale rather than patching in place, auto_resize has
// no distinct failure mode: the blob is simply grown to fit. Subnode order
// (including the front placement done by InsertSubnode/MoveToFirst) is taken
// from the in-memory tree as it stands, and each node's properties are
// written in its property-list order, so a property added since the last
// scan follows the properties the node already had.
func (f *Fdt) Sync(autoResize bool) error {
	_ = autoResize
	w := newStructWriter()
	f.writeNode(w, f.root, 0)
	w.finish()

	h := header{
		offMemRsvmap: headerSize,
		sizeStruct:   uint32(len(w.structBuf)),
		sizeStrings:  uint32(len(w.stringsBuf)),
	}
	h.offStruct = h.offMemRsvmap + 16
	h.offStrings = h.offStruct + h.sizeStruct
	h.totalSize = h.offStrings + h.sizeStrings
	h.version = fdtVersion
	h.lastCompVer = fdtLastCompVer

	blob := make([]byte, h.totalSize)
	copy(blob, h.encode())
	copy(blob[h.offStruct:], w.structBuf)
	copy(blob[h.offStrings:], w.stringsBuf)
	f.blob = blob

	return f.Scan()
}

func (f *Fdt) writeNode(w *structWriter, n *Node, base int) {
	w.beginNode(n.Name)
	for _, name := range n.propList {
		p := n.Props[name]
		off := w.writeProp(name, p.raw())
		p.Offset = base + off
		p.Dirty = false
	}
	for _, c := range n.Children {
		f.writeNode(w, c, base)
	}
	w.endNode()
}

// Pack compacts the blob (here: a full rebuild, since there is no
// preserved slack to reclaim) and refreshes the offset cache.
func (f *Fdt) Pack() error {
	if err := f.Sync(true); err != nil {
		return err
	}
	return f.Refresh()
}

// Flush is an alias for Sync(true) matching the vocabulary of spec-level
// callers that don't need to reason about resize behavior.
func (f *Fdt) Flush() error { return f.Sync(true) }

// GetContents returns the current in-memory blob bytes (does not imply a
// Sync; call Sync/Pack first if the tree has pending edits).
func (f *Fdt) GetContents() []byte { return f.blob }


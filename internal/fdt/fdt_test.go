package fdt

import (
	"bytes"
	"testing"
)

// buildAndReload synchronizes f to a fresh blob and reparses it, exercising
// the write and read halves of the codec together.
func buildAndReload(t *testing.T, f *Fdt) *Fdt {
	t.Helper()
	if err := f.Sync(true); err != nil {
		t.Fatalf("sync: %v", err)
	}
	reloaded, err := FromBytes("", f.GetContents())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return reloaded
}

func TestScanRoundTrip(t *testing.T) {
	f := New()
	root := f.GetRoot()
	root.SetString("compatible", "vendor,board")
	soc := root.AddSubnode("soc")
	soc.SetInt("#address-cells", 1)
	soc.SetInt("#size-cells", 1)
	uart := soc.AddSubnode("uart@0")
	uart.SetStringList("compatible", []string{"vendor,uart"})
	uart.SetInts("reg", []uint32{0, 0x1000})

	reloaded := buildAndReload(t, f)
	got := reloaded.GetNode("/soc/uart@0")
	if got == nil {
		t.Fatal("missing /soc/uart@0 after reload")
	}
	if got.Prop("compatible").Strings[0] != "vendor,uart" {
		t.Errorf("compatible = %v", got.Prop("compatible").Strings)
	}
	reg := got.Prop("reg").Ints
	if len(reg) != 2 || reg[0] != 0 || reg[1] != 0x1000 {
		t.Errorf("reg = %v, want [0 4096]", reg)
	}
}

func TestTypeInference(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want Kind
	}{
		{"empty is bool", nil, KindBool},
		{"nul-terminated ascii is string", []byte("hello\x00"), KindString},
		{"string list", []byte("a\x00bb\x00"), KindString},
		{"odd length is byte", []byte{1, 2, 3}, KindByte},
		{"single byte", []byte{7}, KindByte},
		{"one cell is int", []byte{0, 0, 0, 1}, KindInt},
		{"two cells is int list", []byte{0, 0, 0, 1, 0, 0, 0, 2}, KindInt},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := inferKind(c.raw); got != c.want {
				t.Errorf("inferKind(%v) = %v, want %v", c.raw, got, c.want)
			}
		})
	}
}

func TestWidenBoolToInt(t *testing.T) {
	p := &Prop{Kind: KindBool, Bool: true, Scalar: true}
	p.Widen(KindInt, 1)
	if len(p.Ints) != 1 || p.Ints[0] != 0 {
		t.Errorf("widen bool->int = %v, want [0]", p.Ints)
	}
}

func TestWidenIntToByte(t *testing.T) {
	p := &Prop{Kind: KindInt, Ints: []uint32{0x01020304}}
	p.Widen(KindByte, 4)
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(p.Bytes, want) {
		t.Errorf("widen int->byte = %v, want %v", p.Bytes, want)
	}
}

func TestWidenLengthPadding(t *testing.T) {
	p := &Prop{Kind: KindInt, Ints: []uint32{1}}
	p.Widen(KindInt, 2)
	if len(p.Ints) != 2 || p.Ints[0] != 1 || p.Ints[1] != 0 {
		t.Errorf("widen length pad = %v, want [1 0]", p.Ints)
	}
}

func TestInsertSubnodeOrdering(t *testing.T) {
	f := New()
	root := f.GetRoot()
	a := root.AddSubnode("a")
	_ = a
	b := root.InsertSubnode("b")
	if root.Children[0] != b {
		t.Fatalf("InsertSubnode did not place new child first")
	}
}

func TestMoveToFirst(t *testing.T) {
	f := New()
	root := f.GetRoot()
	a := root.AddSubnode("a")
	b := root.AddSubnode("b")
	c := root.AddSubnode("c")

	c.MoveToFirst()
	if len(root.Children) != 3 || root.Children[0] != c || root.Children[1] != a || root.Children[2] != b {
		t.Fatalf("children after MoveToFirst = %v, want [c a b]", childNames(root))
	}

	reloaded := buildAndReload(t, f)
	if got := childNames(reloaded.GetRoot()); got[0] != "c" {
		t.Errorf("order after reload = %v, want c first", got)
	}
}

func childNames(n *Node) []string {
	out := make([]string, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.Name
	}
	return out
}

func TestCopySubnodesFromPhandles(t *testing.T) {
	f := New()
	root := f.GetRoot()

	src1 := root.AddSubnode("src1")
	src1.SetInt("phandle", 1)
	src1.SetString("tag", "from-src1")
	src1.AddSubnode("child1")

	src2 := root.AddSubnode("src2")
	src2.SetInt("phandle", 2)
	src2.SetString("tag", "from-src2")
	src2.AddSubnode("child2")

	reloaded := buildAndReload(t, f)
	dst := reloaded.GetRoot().AddSubnode("dst")

	if err := dst.CopySubnodesFromPhandles([]uint32{1, 2}); err != nil {
		t.Fatalf("CopySubnodesFromPhandles: %v", err)
	}

	if dst.HasProp("phandle") {
		t.Errorf("phandle property must not be copied")
	}
	// Phandles are processed in reverse order so the first-listed
	// phandle's children end up first.
	if got := childNames(dst); len(got) != 2 || got[0] != "child1" || got[1] != "child2" {
		t.Errorf("dst children = %v, want [child1 child2]", got)
	}
	if dst.Prop("tag").Strings[0] != "from-src2" {
		t.Errorf("merged tag = %q, want src2 (merged first, in reverse phandle order) to win", dst.Prop("tag").Strings)
	}
}

func TestCopySubnodesFromPhandlesUnknownPhandle(t *testing.T) {
	f := New()
	root := f.GetRoot()
	reloaded := buildAndReload(t, f)
	dst := reloaded.GetRoot().AddSubnode("dst")
	_ = root

	if err := dst.CopySubnodesFromPhandles([]uint32{99}); err == nil {
		t.Fatal("expected an error for an unresolvable phandle")
	}
}

func TestPackAndFlush(t *testing.T) {
	f := New()
	root := f.GetRoot()
	root.SetString("compatible", "vendor,board")
	root.AddSubnode("soc")

	if err := f.Pack(); err != nil {
		t.Fatalf("pack: %v", err)
	}
	if f.GetNode("/soc") == nil {
		t.Fatal("node lost across Pack")
	}

	root.AddSubnode("soc2")
	if err := f.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	reloaded, err := FromBytes("", f.GetContents())
	if err != nil {
		t.Fatalf("reload after flush: %v", err)
	}
	if reloaded.GetNode("/soc2") == nil {
		t.Fatal("node added before Flush missing after reload")
	}
}

func TestCopyNodeExcludesTopLevelPhandle(t *testing.T) {
	f := New()
	root := f.GetRoot()
	src := root.AddSubnode("src")
	src.SetInt("phandle", 5)
	src.SetString("foo", "bar")

	dst := root.AddSubnode("dst")
	dst.CopyNode(src)

	if dst.Subnode("src").HasProp("phandle") {
		t.Errorf("top-level copy_node must not copy phandle")
	}
	if dst.Subnode("src").Prop("foo").Strings[0] != "bar" {
		t.Errorf("copy_node should copy other properties")
	}
}

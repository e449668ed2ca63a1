package platdata

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinyrange/dtoc/internal/fdt"
	"github.com/tinyrange/dtoc/internal/srcscan"
)

// reload synchronizes f to a blob and reparses it so the phandle table and
// offset cache reflect the final tree shape, mirroring how a real run
// loads a .dtb from disk.
func reload(t *testing.T, f *fdt.Fdt) *fdt.Fdt {
	t.Helper()
	if err := f.Sync(true); err != nil {
		t.Fatalf("sync: %v", err)
	}
	out, err := fdt.FromBytes("", f.GetContents())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return out
}

func gpioScanner() *srcscan.Scanner {
	s := srcscan.NewScanner()
	uc := &srcscan.UclassDriver{
		Name:        "gpio",
		UclassID:    "UCLASS_GPIO",
		AliasByNum:  map[int]string{},
		AliasByPath: map[string]int{},
	}
	s.Uclasses["UCLASS_GPIO"] = uc
	s.UclassByName["gpio"] = uc
	s.Drivers["sandbox_gpio"] = &srcscan.Driver{
		Name:        "sandbox_gpio",
		UclassID:    "UCLASS_GPIO",
		Compat:      map[string]string{"sandbox,gpio": ""},
		CompatOrder: []string{"sandbox,gpio"},
	}
	s.BuildCompatIndex()
	return s
}

// TestEmptyRootNotBound covers Seed Scenario S1: a tree with only a root
// node and AddRoot unset produces zero devices and the struct emitter runs
// without error.
func TestEmptyRootNotBound(t *testing.T) {
	f := fdt.New()
	f.GetRoot().SetString("compatible", "sandbox,board")
	tree := reload(t, f)

	c := NewCompiler(tree, gpioScanner())
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(c.Devices) != 0 {
		t.Fatalf("expected no devices, got %d", len(c.Devices))
	}
	var buf bytes.Buffer
	if err := c.EmitStructs(&buf); err != nil {
		t.Fatalf("emit structs: %v", err)
	}
}

// TestTwoGPIOPhandleResolution covers Seed Scenario S2: a consumer node's
// gpios property referencing two gpio-bank phandles resolves to two
// tuples with the target's #gpio-cells arg count.
func TestTwoGPIOPhandleResolution(t *testing.T) {
	f := fdt.New()
	root := f.GetRoot()
	root.SetString("compatible", "sandbox,board")

	gpioA := root.AddSubnode("gpio@0")
	gpioA.SetStringList("compatible", []string{"sandbox,gpio"})
	gpioA.SetInt("#gpio-cells", 2)
	gpioA.SetInt("phandle", 1)

	gpioB := root.AddSubnode("gpio@1")
	gpioB.SetStringList("compatible", []string{"sandbox,gpio"})
	gpioB.SetInt("#gpio-cells", 2)
	gpioB.SetInt("phandle", 2)

	consumer := root.AddSubnode("consumer")
	consumer.SetStringList("compatible", []string{"sandbox,consumer"})
	consumer.SetInts("gpios", []uint32{1, 3, 0, 2, 5, 1})

	tree := reload(t, f)

	s := gpioScanner()
	s.Drivers["sandbox_consumer"] = &srcscan.Driver{
		Name:        "sandbox_consumer",
		UclassID:    "UCLASS_GPIO",
		Compat:      map[string]string{"sandbox,consumer": ""},
		CompatOrder: []string{"sandbox,consumer"},
	}
	s.BuildCompatIndex()

	c := NewCompiler(tree, s)
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	dev := c.ByPath["/consumer"]
	if dev == nil {
		t.Fatal("missing /consumer device")
	}
	field := dev.Phandles["gpios"]
	if field == nil {
		t.Fatal("gpios not resolved as a phandle field")
	}
	if len(field.Tuples) != 2 {
		t.Fatalf("expected 2 tuples, got %d", len(field.Tuples))
	}
	if field.MaxArgs != 2 {
		t.Fatalf("expected MaxArgs 2, got %d", field.MaxArgs)
	}
	if field.Tuples[0].Args[0] != 3 || field.Tuples[0].Args[1] != 0 {
		t.Errorf("tuple 0 args = %v, want [3 0]", field.Tuples[0].Args)
	}
	if field.Tuples[1].Args[0] != 5 || field.Tuples[1].Args[1] != 1 {
		t.Errorf("tuple 1 args = %v, want [5 1]", field.Tuples[1].Args)
	}
}

// TestWideningAcrossFamily covers Seed Scenario S3: two nodes of the same
// struct family with differently shaped occurrences of a property widen
// to one common emitted layout.
func TestWideningAcrossFamily(t *testing.T) {
	f := fdt.New()
	root := f.GetRoot()
	root.SetString("compatible", "sandbox,board")

	a := root.AddSubnode("gpio@0")
	a.SetStringList("compatible", []string{"sandbox,gpio"})
	a.SetInt("#gpio-cells", 2)
	a.SetInt("count", 1)

	b := root.AddSubnode("gpio@1")
	b.SetStringList("compatible", []string{"sandbox,gpio"})
	b.SetInt("#gpio-cells", 2)
	b.SetInts("count", []uint32{1, 2, 3})

	tree := reload(t, f)
	c := NewCompiler(tree, gpioScanner())
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	layout := c.Layouts["sandbox_gpio"]
	if layout == nil {
		t.Fatal("missing sandbox_gpio layout")
	}
	field := layout.Fields["count"]
	if field.MaxLen != 3 {
		t.Fatalf("expected widened length 3, got %d", field.MaxLen)
	}
	devA := c.ByPath["/gpio@0"]
	if len(devA.Node.Prop("count").Ints) != 3 {
		t.Errorf("node a's count was not padded to length 3: %v", devA.Node.Prop("count").Ints)
	}
}

// TestWideRegPromotion covers Seed Scenario S4: a parent declaring
// #address-cells/#size-cells greater than 1 causes reg to be promoted to
// 64-bit (address, size) pairs.
func TestWideRegPromotion(t *testing.T) {
	f := fdt.New()
	root := f.GetRoot()
	root.SetString("compatible", "sandbox,board")
	soc := root.AddSubnode("soc")
	soc.SetInt("#address-cells", 2)
	soc.SetInt("#size-cells", 2)

	dev := soc.AddSubnode("uart@100000000")
	dev.SetStringList("compatible", []string{"sandbox,gpio"})
	dev.SetInts("reg", []uint32{0x1, 0x0, 0x0, 0x1000})

	tree := reload(t, f)
	c := NewCompiler(tree, gpioScanner())
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	d := c.ByPath["/soc/uart@100000000"]
	reg := d.Node.Prop("reg")
	if reg.Kind != fdt.KindInt64 {
		t.Fatalf("reg kind = %v, want int64", reg.Kind)
	}
	if len(reg.Int64s) != 2 || reg.Int64s[0] != 0x100000000 || reg.Int64s[1] != 0x1000 {
		t.Errorf("reg = %v, want [0x100000000 0x1000]", reg.Int64s)
	}
}

// TestAliasSeqLeavesGapForUnaliased covers Seed Scenario S5: an /aliases
// entry pinning one node to sequence 2 must not prevent an earlier,
// unaliased node from claiming the smallest free sequence (0), even though
// it is registered after the aliased node numerically.
func TestAliasSeqLeavesGapForUnaliased(t *testing.T) {
	f := fdt.New()
	root := f.GetRoot()
	root.SetString("compatible", "sandbox,board")

	a := root.AddSubnode("gpio-a")
	a.SetStringList("compatible", []string{"sandbox,gpio"})
	a.SetInt("#gpio-cells", 2)

	b := root.AddSubnode("gpio-b")
	b.SetStringList("compatible", []string{"sandbox,gpio"})
	b.SetInt("#gpio-cells", 2)

	aliases := root.AddSubnode("aliases")
	aliases.SetString("gpio2", "/gpio-b")

	tree := reload(t, f)
	c := NewCompiler(tree, gpioScanner())
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	devA := c.ByPath["/gpio-a"]
	devB := c.ByPath["/gpio-b"]
	if devB.Seq != 2 {
		t.Errorf("aliased node seq = %d, want 2", devB.Seq)
	}
	if devA.Seq != 0 {
		t.Errorf("unaliased node seq = %d, want 0 (smallest free)", devA.Seq)
	}
}

// TestDuplicateCompatAlphabeticalTieBreak covers Seed Scenario S6: two
// drivers claiming the same compatible string resolve to the
// alphabetically smaller driver name.
func TestDuplicateCompatAlphabeticalTieBreak(t *testing.T) {
	s := srcscan.NewScanner()
	s.Drivers["zeta_driver"] = &srcscan.Driver{Name: "zeta_driver", Compat: map[string]string{"vendor,thing": ""}}
	s.Drivers["alpha_driver"] = &srcscan.Driver{Name: "alpha_driver", Compat: map[string]string{"vendor,thing": ""}}
	s.BuildCompatIndex()

	d, ok := s.LookupDriverByCompat("vendor_thing")
	if !ok {
		t.Fatal("expected a match")
	}
	if d.Name != "alpha_driver" {
		t.Errorf("resolved driver = %s, want alpha_driver", d.Name)
	}
}

func TestUclassNodeChain(t *testing.T) {
	f := fdt.New()
	root := f.GetRoot()
	root.SetString("compatible", "sandbox,board")

	a := root.AddSubnode("gpio@0")
	a.SetStringList("compatible", []string{"sandbox,gpio"})
	a.SetInt("#gpio-cells", 2)
	b := root.AddSubnode("gpio@1")
	b.SetStringList("compatible", []string{"sandbox,gpio"})
	b.SetInt("#gpio-cells", 2)

	tree := reload(t, f)
	c := NewCompiler(tree, gpioScanner())
	c.Instantiate = true
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf bytes.Buffer
	if err := c.EmitDevice(&buf); err != nil {
		t.Fatalf("emit device: %v", err)
	}
	out := buf.String()

	devA := c.ByPath["/gpio@0"]
	devB := c.ByPath["/gpio@1"]
	if !strings.Contains(out, "DM_DEVICE_INST("+devA.CName+")") {
		t.Fatalf("missing instance for %s:\n%s", devA.CName, out)
	}
	wantNext := ".uclass_node\t= { .next = " + siblingNodeRef(devB.CName)
	if !strings.Contains(out, wantNext) {
		t.Errorf("expected uclass_node chain from %s to %s:\n%s", devA.CName, devB.CName, out)
	}
}

func TestCompileUnsupportedCommand(t *testing.T) {
	f := fdt.New()
	f.GetRoot().SetString("compatible", "sandbox,board")
	tree := reload(t, f)
	c := NewCompiler(tree, gpioScanner())
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	err := c.Compile("bogus", "", OutputDirs{})
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if _, ok := err.(*UnsupportedCommandError); !ok {
		t.Errorf("error = %T, want *UnsupportedCommandError", err)
	}
}

func TestCompileSplitOutputDirs(t *testing.T) {
	f := fdt.New()
	f.GetRoot().SetString("compatible", "sandbox,board")
	tree := reload(t, f)
	c := NewCompiler(tree, gpioScanner())
	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	dirC := t.TempDir()
	dirH := t.TempDir()
	if err := c.Compile("decl,struct,platdata", "", OutputDirs{C: dirC, H: dirH}); err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, name := range []string{"dt-decl.h", "dt-structs-gen.h"} {
		if _, err := os.Stat(filepath.Join(dirH, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dirC, "dt-plat.c")); err != nil {
		t.Errorf("dt-plat.c: %v", err)
	}

	if err := c.Compile("decl", "somefile", OutputDirs{C: dirC}); err == nil {
		t.Error("expected an error when both an output file and an output dir are set")
	}
}

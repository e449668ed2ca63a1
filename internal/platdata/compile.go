package platdata

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// commandFile maps one emit command to the filename its output is written
// to when output directories are used instead of a single output file.
var commandFile = map[string]string{
	"decl":     "dt-decl.h",
	"struct":   "dt-structs-gen.h",
	"platdata": "dt-plat.c",
	"device":   "dt-device.c",
	"uclass":   "dt-uclass.c",
}

func isHeaderCommand(cmd string) bool {
	return strings.HasSuffix(commandFile[cmd], ".h")
}

var allCommands = []string{"decl", "struct", "platdata", "device", "uclass"}

func (c *Compiler) emitOne(cmd string, w io.Writer) error {
	switch cmd {
	case "decl":
		return c.EmitDecl(w)
	case "struct":
		return c.EmitStructs(w)
	case "platdata":
		return c.EmitPlatdata(w)
	case "device":
		if !c.Instantiate {
			return &UnsupportedCommandError{Command: cmd}
		}
		return c.EmitDevice(w)
	case "uclass":
		if !c.Instantiate {
			return &UnsupportedCommandError{Command: cmd}
		}
		return c.EmitUclass(w)
	default:
		return &UnsupportedCommandError{Command: cmd}
	}
}

// OutputDirs names the pair of directories instantiated-mode and
// non-instantiated builds alike write canonically-named files into, one
// per emitted command, when a single OutputFile isn't used: C is for
// dt-plat.c/dt-device.c/dt-uclass.c, H is for dt-decl.h/dt-structs-gen.h.
type OutputDirs struct {
	C, H string
}

func (d OutputDirs) empty() bool { return d.C == "" && d.H == "" }

// Compile runs the emit commands named in commandList (a comma-separated
// subset of decl,struct,platdata,device,uclass,all), per spec.md §6.
// Exactly one of outFile, dirs may be set: outFile concatenates every
// command's output into a single stream, dirs writes one file per command
// under its canonical name (into dirs.H for headers, dirs.C otherwise),
// and if both are empty every command's output is concatenated to stdout.
func (c *Compiler) Compile(commandList, outFile string, dirs OutputDirs) error {
	if outFile != "" && !dirs.empty() {
		return fmt.Errorf("platdata: a single output file and output directories are mutually exclusive")
	}

	cmds := strings.Split(commandList, ",")
	var names []string
	for _, cmd := range cmds {
		cmd = strings.TrimSpace(cmd)
		if cmd == "all" {
			names = append(names, allCommands...)
			continue
		}
		if _, ok := commandFile[cmd]; !ok {
			return &UnsupportedCommandError{Command: cmd}
		}
		names = append(names, cmd)
	}

	if !dirs.empty() {
		for _, dir := range []string{dirs.C, dirs.H} {
			if dir == "" {
				continue
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		for _, name := range names {
			dir := dirs.C
			if isHeaderCommand(name) {
				dir = dirs.H
			}
			path := filepath.Join(dir, commandFile[name])
			var buf bytes.Buffer
			if err := c.emitOne(name, &buf); err != nil {
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return err
			}
		}
		return nil
	}

	out := io.Writer(os.Stdout)
	var f *os.File
	if outFile != "" {
		var err error
		f, err = os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	for _, name := range names {
		if err := c.emitOne(name, out); err != nil {
			return err
		}
	}
	return nil
}

// Command dtoc compiles a flattened device tree blob and a C source tree
// into platform-data C: struct declarations, static initializers, extern
// declarations, and (in instantiated mode) linked device/uclass records.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tinyrange/dtoc/internal/config"
	"github.com/tinyrange/dtoc/internal/fdt"
	"github.com/tinyrange/dtoc/internal/platdata"
	"github.com/tinyrange/dtoc/internal/srcscan"
	"github.com/tinyrange/dtoc/internal/watch"
)

func main() {
	if err := run(); err != nil {
		var cmdErr *platdata.UnsupportedCommandError
		if errors.As(err, &cmdErr) {
			fmt.Fprintf(os.Stderr, "dtoc: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "dtoc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("dtoc", flag.ContinueOnError)
	dtbPath := fs.String("dtb", "", "compiled device tree blob to compile against")
	srcRoot := fs.String("source-dir", "", "root of the C source tree to scan for drivers/uclasses/structs")
	configPath := fs.String("config", "", "site config file (default: dtoc.yml next to -dtb)")
	outFile := fs.String("output", "", "write all commands' output to this single file (default: stdout)")
	outDirC := fs.String("output-dir-c", "", "write each command's .c output to its canonical name under this directory")
	outDirH := fs.String("output-dir-h", "", "write each command's .h output to its canonical name under this directory")
	phase := fs.String("phase", "", `build phase for duplicate-driver resolution ("", "spl", "tpl")`)
	var extra stringList
	fs.Var(&extra, "driver", "additional driver source file to scan (repeatable)")
	jobs := fs.Int("jobs", 0, "parallel source-scan workers (default: NumCPU)")
	addRoot := fs.Bool("add-root", false, "treat the root node itself as a device")
	includeDisabled := fs.Bool("include-disabled", false, "bind disabled nodes too")
	instantiate := fs.Bool("instantiate", false, "emit instantiated DM_DEVICE_INST/DM_UCLASS_INST records")
	needDrivers := fs.Bool("need-drivers", true, "fail when a node's compatible resolves to no driver")
	progress := fs.Bool("progress", false, "show a progress bar while scanning sources")
	debug := fs.Bool("debug", false, "enable debug logging")
	watchMode := fs.Bool("watch", false, "rebuild whenever the blob or source tree changes")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command>[,<command>...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "commands: decl, struct, platdata, device, uclass, all\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	args := fs.Args()
	if len(args) != 1 {
		fs.Usage()
		return fmt.Errorf("exactly one command argument is required")
	}
	command := args[0]

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *dtbPath == "" || *srcRoot == "" {
		return fmt.Errorf("-dtb and -source-dir are required")
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(filepath.Dir(*dtbPath), config.Filename)
	}
	site, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if *phase == "" {
		*phase = site.TargetPhase
	}
	if !set["include-disabled"] && site.IncludeDisabled != nil {
		*includeDisabled = *site.IncludeDisabled
	}
	if !set["instantiate"] && site.Instantiate != nil {
		*instantiate = *site.Instantiate
	}
	if *jobs == 0 {
		*jobs = site.Jobs
	}

	build := func() error {
		return compile(buildParams{
			dtbPath:         *dtbPath,
			srcRoot:         *srcRoot,
			extra:           extraFiles(extra, site.ExtraDrivers),
			phase:           *phase,
			command:         command,
			outFile:         *outFile,
			outDirs:         platdata.OutputDirs{C: *outDirC, H: *outDirH},
			jobs:            *jobs,
			addRoot:         *addRoot,
			includeDisabled: *includeDisabled,
			instantiate:     *instantiate,
			needDrivers:     *needDrivers,
			progress:        *progress,
		})
	}

	if !*watchMode {
		return build()
	}

	if err := build(); err != nil {
		slog.Error("initial build failed", "error", err)
	}
	w, err := watch.New(*dtbPath, []string{*srcRoot}, 300*time.Millisecond, func() {
		if err := build(); err != nil {
			slog.Error("rebuild failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	select {}
}

// stringList collects repeated occurrences of a flag, e.g. -driver a.c
// -driver b.c, into a slice.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func extraFiles(flagVal stringList, siteVal []string) []string {
	var out []string
	out = append(out, siteVal...)
	out = append(out, flagVal...)
	return out
}

type buildParams struct {
	dtbPath, srcRoot string
	extra            []string
	phase            string
	command          string
	outFile          string
	outDirs          platdata.OutputDirs
	jobs             int
	addRoot          bool
	includeDisabled  bool
	instantiate      bool
	needDrivers      bool
	progress         bool
}

func compile(p buildParams) error {
	data, err := os.ReadFile(p.dtbPath)
	if err != nil {
		return err
	}
	tree, err := fdt.FromBytes(p.dtbPath, data)
	if err != nil {
		return err
	}

	scanner, err := srcscan.ScanTree(context.Background(), p.srcRoot, srcscan.Options{
		Jobs:        p.jobs,
		TargetPhase: p.phase,
		Progress:    p.progress,
	})
	if err != nil {
		return err
	}
	for _, path := range p.extra {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		res, err := srcscan.ScanFile(path, data)
		if err != nil {
			return err
		}
		scanner.Merge(res, p.phase)
	}
	scanner.BuildCompatIndex()

	c := platdata.NewCompiler(tree, scanner)
	c.AddRoot = p.addRoot
	c.IncludeDisabled = p.includeDisabled
	c.Instantiate = p.instantiate
	c.NeedDrivers = p.needDrivers
	if err := c.Run(); err != nil {
		return err
	}
	for _, w := range c.Warnings {
		slog.Warn(w)
	}

	return c.Compile(p.command, p.outFile, p.outDirs)
}

// Package config loads dtoc's optional site configuration file: defaults
// for flags that a build environment wants to pin without every invoker
// repeating them on the command line.
package config

import (
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Filename is the config file dtoc looks for next to the FDT input, if one
// isn't given explicitly via -config.
const Filename = "dtoc.yml"

// Site holds deployment-wide defaults. Unset fields keep the CLI's own
// defaults; pointers distinguish "not set" from "set to false".
type Site struct {
	TargetPhase     string   `yaml:"target_phase"`
	IncludeDisabled *bool    `yaml:"include_disabled"`
	Instantiate     *bool    `yaml:"instantiate"`
	Jobs            int      `yaml:"jobs"`
	ExtraDrivers    []string `yaml:"extra_drivers"`
}

// maxSize bounds how large a config file Load will read, to avoid being
// handed something absurd instead of a small YAML document.
const maxSize = 1 << 20

// Load reads and parses path. A missing file returns a zero Site and no
// error. A world-writable file is refused (an attacker able to write next
// to the binary could replace the binary itself, but dtoc should not make
// itself a second target). Any other stat, read or parse failure is logged
// and also yields a zero Site rather than an error.
func Load(path string) (Site, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Site{}, nil
		}
		slog.Warn("cannot stat config file, ignoring", "path", path, "error", err)
		return Site{}, nil
	}

	if runtime.GOOS != "windows" && info.Mode().Perm()&0o002 != 0 {
		slog.Error("config file is world-writable, refusing to load", "path", path, "mode", info.Mode())
		return Site{}, nil
	}
	if info.Size() > maxSize {
		slog.Warn("config file too large, ignoring", "path", path, "size", info.Size())
		return Site{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("cannot read config file, ignoring", "path", path, "error", err)
		return Site{}, nil
	}
	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		slog.Warn("cannot parse config file, ignoring", "path", path, "error", err)
		return Site{}, nil
	}
	slog.Debug("loaded config", "path", path)
	return s, nil
}

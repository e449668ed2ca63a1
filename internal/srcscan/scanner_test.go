package srcscan

import "testing"

const sampleDriver = `
static const struct udevice_id vendor_uart_ids[] = {
	{ .compatible = "vendor,uart", .data = 0 },
	{ }
};

U_BOOT_DRIVER(vendor_uart) = {
	.name = "vendor_uart",
	.id = UCLASS_SERIAL,
	.of_match = vendor_uart_ids,
	.priv_auto = sizeof(struct vendor_uart_priv),
};

DM_DRIVER_ALIAS(vendor_uart_alias, vendor_uart)
`

func TestScanDriverFile(t *testing.T) {
	drivers, _, aliases, _, err := scanDriverFile("vendor_uart.c", []byte(sampleDriver))
	if err != nil {
		t.Fatalf("scanDriverFile: %v", err)
	}
	if len(drivers) != 1 {
		t.Fatalf("got %d drivers, want 1", len(drivers))
	}
	d := drivers[0]
	if d.Name != "vendor_uart" {
		t.Errorf("name = %q", d.Name)
	}
	if d.UclassID != "UCLASS_SERIAL" {
		t.Errorf("uclass id = %q", d.UclassID)
	}
	if d.PrivAuto != "vendor_uart_priv" {
		t.Errorf("priv_auto = %q", d.PrivAuto)
	}
	if _, ok := d.Compat["vendor,uart"]; !ok {
		t.Errorf("compat table missing vendor,uart: %v", d.Compat)
	}
	if aliases["vendor_uart_alias"] != "vendor_uart" {
		t.Errorf("alias not recorded: %v", aliases)
	}
}

const sampleUclass = `
UCLASS_DRIVER(serial) = {
	.id = UCLASS_SERIAL,
	.priv_auto = sizeof(struct serial_uc_priv),
};
`

func TestScanUclassFile(t *testing.T) {
	_, uclasses, _, _, err := scanDriverFile("uclass-serial.c", []byte(sampleUclass))
	if err != nil {
		t.Fatalf("scanDriverFile: %v", err)
	}
	if len(uclasses) != 1 || uclasses[0].Name != "serial" {
		t.Fatalf("uclasses = %+v", uclasses)
	}
}

const sampleDriverBadOfMatch = `
static const struct udevice_id vendor_spi_ids[] = {
	{ .compatible = "vendor,spi", .data = 0 },
	{ }
};

U_BOOT_DRIVER(vendor_spi) = {
	.name = "vendor_spi",
	.id = UCLASS_SPI,
	.of_match = of_match_ptr(vendor_spi_ids) something_else,
};
`

func TestScanDriverFileOfMatchBadSuffixWarns(t *testing.T) {
	drivers, _, _, warnings, err := scanDriverFile("vendor_spi.c", []byte(sampleDriverBadOfMatch))
	if err != nil {
		t.Fatalf("scanDriverFile: %v", err)
	}
	if len(drivers) != 1 || drivers[0].Name != "vendor_spi" {
		t.Fatalf("drivers = %+v, want compatible still accepted", drivers)
	}
	if _, ok := drivers[0].Compat["vendor,spi"]; !ok {
		t.Errorf("compatible dropped despite bad of_match suffix: %v", drivers[0].Compat)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestScanStructFile(t *testing.T) {
	data := []byte("struct dtd_vendor_uart {\n\tfdt32_t reg;\n};\n")
	structs := scanStructFile("include/dt-structs-gen.h", data)
	if len(structs) != 1 || structs[0].Name != "dtd_vendor_uart" {
		t.Fatalf("structs = %+v", structs)
	}
}

func TestConvNameToC(t *testing.T) {
	if got := ConvNameToC("vendor,uart-0.main"); got != "vendor_uart_0_main" {
		t.Errorf("ConvNameToC = %q", got)
	}
}

func TestParseAliasName(t *testing.T) {
	base, seq, ok := ParseAliasName("serial2")
	if !ok || base != "serial" || seq != 2 {
		t.Errorf("ParseAliasName = %q %d %v", base, seq, ok)
	}
	if _, _, ok := ParseAliasName("2serial"); ok {
		t.Errorf("ParseAliasName should reject a name without a trailing sequence number")
	}
}

func TestDuplicateDriverPhaseResolution(t *testing.T) {
	s := NewScanner()
	a := &Driver{Name: "x", Phase: "spl", Compat: map[string]string{}}
	b := &Driver{Name: "x", Phase: "", Compat: map[string]string{}}
	s.Merge(&fileResult{file: "a.c", drivers: []*Driver{a}, aliases: map[string]string{}}, "spl")
	s.Merge(&fileResult{file: "b.c", drivers: []*Driver{b}, aliases: map[string]string{}}, "spl")

	got := s.Drivers["x"]
	if got != a {
		t.Errorf("expected spl-phase driver to win, got phase=%q", got.Phase)
	}
	if len(got.Dups) != 1 || got.Dups[0] != b {
		t.Errorf("expected loser recorded in Dups, got %+v", got.Dups)
	}
}

func TestDuplicateCompatAlphabeticalTieBreak(t *testing.T) {
	s := NewScanner()
	s.Drivers["drvB"] = &Driver{Name: "drvB", Compat: map[string]string{"vendor,thing": ""}}
	s.Drivers["drvA"] = &Driver{Name: "drvA", Compat: map[string]string{"vendor,thing": ""}}
	s.BuildCompatIndex()

	d, ok := s.LookupDriverByCompat("vendor_thing")
	if !ok || d.Name != "drvA" {
		t.Errorf("expected drvA to win tie-break, got %v", d)
	}
}

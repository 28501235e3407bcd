package plugin

import "testing"

func TestVersionCompare(t *testing.T) {
	v31010 := ToolVersion{Raw: "3.10.10", Major: 3, Minor: Int(10), Patch: Int(10)}
	v31018 := ToolVersion{Raw: "3.10.18", Major: 3, Minor: Int(10), Patch: Int(18)}
	v3137 := ToolVersion{Raw: "3.13.7", Major: 3, Minor: Int(13), Patch: Int(7)}

	if v31010.Compare(v31018) >= 0 {
		t.Fatal("expected 3.10.10 < 3.10.18")
	}
	if v3137.Compare(v31018) <= 0 {
		t.Fatal("expected 3.13.7 > 3.10.18")
	}
	if v31018.Compare(v31018) != 0 {
		t.Fatal("expected equal versions to compare 0")
	}
}

func TestVersionCompareAbsentPartsAreZero(t *testing.T) {
	v21 := ToolVersion{Raw: "21", Major: 21}
	v2100 := ToolVersion{Raw: "21.0.0", Major: 21, Minor: Int(0), Patch: Int(0)}

	// Numeric fields tie; the raw string decides deterministically.
	if got := v21.Compare(v2100); got >= 0 {
		t.Fatalf("expected raw tiebreak to order %q before %q, got %d", "21", "21.0.0", got)
	}
}

func TestVersionEqualByRaw(t *testing.T) {
	a := ToolVersion{Raw: "20.10.0", Major: 20, Minor: Int(10), Patch: Int(0)}
	b := ToolVersion{Raw: "20.10.0", Major: 20, Minor: Int(10), Patch: Int(0), IsLTS: true}
	if !a.Equal(b) {
		t.Fatal("expected equality by raw string")
	}
}

func TestDisplayNameFallback(t *testing.T) {
	m := PluginMetadata{ID: "node"}
	if m.DisplayName() != "node" {
		t.Fatalf("expected id fallback, got %q", m.DisplayName())
	}
	m.Name = "Node.js"
	if m.DisplayName() != "Node.js" {
		t.Fatalf("expected Node.js, got %q", m.DisplayName())
	}
}

func TestHostPlatform(t *testing.T) {
	platform, arch, err := HostPlatform()
	if err != nil {
		t.Skipf("host not supported: %v", err)
	}
	if platform == "" || arch == "" {
		t.Fatalf("expected non-empty platform/arch, got %q/%q", platform, arch)
	}
}

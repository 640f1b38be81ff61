package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "extswitch" {
		t.Errorf("CLIName() = %q, want %q", got, "extswitch")
	}
	if got := HomeDir(); got != ".extswitch" {
		t.Errorf("HomeDir() = %q, want %q", got, ".extswitch")
	}
	if got := SelfID(); got == "" {
		t.Error("SelfID() is empty")
	}
}

func TestEnvVar(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"HOME", "EXTSWITCH_HOME"},
		{"extensions", "EXTSWITCH_EXTENSIONS"},
		{"store_driver", "EXTSWITCH_STORE_DRIVER"},
	}
	for _, tt := range tests {
		if got := EnvVar(tt.suffix); got != tt.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.suffix, got, tt.want)
		}
	}
}

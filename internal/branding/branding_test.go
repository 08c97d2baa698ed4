package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cli name", CLIName(), "adpkg"},
		{"home dir", HomeDir(), ".adpkg"},
		{"env prefix", EnvPrefix(), "ADPKG"},
		{"module", GoModule(), "github.com/adp-labs/adpkg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("log_level"); got != "ADPKG_LOG_LEVEL" {
		t.Errorf("EnvVar = %q", got)
	}
}

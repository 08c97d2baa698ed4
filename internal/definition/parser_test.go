package definition

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testdataDir = "testdata"

func testPath(name string) string {
	return filepath.Join(testdataDir, name)
}

func TestLoad_Minimal(t *testing.T) {
	def, err := Load(testPath("valid-minimal.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if def.ADPVersion != "0.1.0" {
		t.Errorf("ADPVersion = %q, want 0.1.0", def.ADPVersion)
	}
	if def.ID != "agent.demo" {
		t.Errorf("ID = %q, want agent.demo", def.ID)
	}
	if len(def.Runtime.Execution) != 1 {
		t.Fatalf("len(Execution) = %d, want 1", len(def.Runtime.Execution))
	}
	exec := def.Runtime.Execution[0]
	if exec.Backend != "python" || exec.ID != "py" {
		t.Errorf("Execution[0] = %+v", exec)
	}
	if want := (Entrypoint{"agent.main:app"}); !reflect.DeepEqual(exec.Entrypoint, want) {
		t.Errorf("Entrypoint = %v, want %v", exec.Entrypoint, want)
	}
}

func TestLoad_Full(t *testing.T) {
	def, err := Load(testPath("valid-full.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if def.Name != "Support Triage" {
		t.Errorf("Name = %q", def.Name)
	}
	if got := def.Runtime.Execution[0].Entrypoint; !reflect.DeepEqual(got, Entrypoint{"python", "-m", "triage.main"}) {
		t.Errorf("list Entrypoint = %v", got)
	}
	if got := def.Runtime.Execution[0].Env["LOG_LEVEL"]; got != "info" {
		t.Errorf("Env[LOG_LEVEL] = %q", got)
	}
	if got := def.Runtime.Execution[1].Image; got != "ghcr.io/example/triage:1.4.2" {
		t.Errorf("Image = %q", got)
	}

	if len(def.Runtime.Models) != 1 {
		t.Fatalf("len(Models) = %d, want 1", len(def.Runtime.Models))
	}
	m := def.Runtime.Models[0]
	if m.Temperature == nil || *m.Temperature != 0.2 {
		t.Errorf("Temperature = %v", m.Temperature)
	}
	if m.MaxTokens == nil || *m.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %v", m.MaxTokens)
	}

	flow, ok := def.Flow.(map[string]interface{})
	if !ok || flow["graph"] == nil {
		t.Errorf("Flow = %#v, want a map with graph", def.Flow)
	}
	if def.Extra["x-owner"] != "platform-team" {
		t.Errorf("Extra = %v, want x-owner preserved", def.Extra)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(testPath("nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist in chain", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(testPath("malformed.yaml"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Path != testPath("malformed.yaml") {
		t.Errorf("ParseError.Path = %q", pe.Path)
	}
	if !strings.Contains(err.Error(), "malformed.yaml") {
		t.Errorf("error %q should name the file", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t\n"},
		{"sequence document", "- a\n- b\n"},
		{"scalar document", "just text\n"},
		{"entrypoint mapping", "adp_version: \"0.1.0\"\nid: a\nruntime:\n  execution:\n    - backend: python\n      id: py\n      entrypoint: {cmd: x}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Parse([]byte(tt.data))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse error = %v, want *ParseError", err)
			}
			if def != nil {
				t.Errorf("Parse returned a partial definition: %+v", def)
			}
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	def, err := Load(testPath("valid-full.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Marshal(def)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Marshal) error: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(def, again) {
		t.Errorf("round trip changed the definition:\nbefore %+v\nafter  %+v", def, again)
	}
}

func TestMarshal_SingleEntrypointAsScalar(t *testing.T) {
	def, err := Load(testPath("valid-minimal.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Marshal(def)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "entrypoint: agent.main:app") {
		t.Errorf("single entrypoint should marshal as a scalar:\n%s", out)
	}
}

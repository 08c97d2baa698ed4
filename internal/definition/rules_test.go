package definition

import (
	"errors"
	"strings"
	"testing"
)

func validDefinition() *Definition {
	return &Definition{
		ADPVersion: "0.1.0",
		ID:         "agent.demo",
		Runtime: Runtime{
			Execution: []ExecutionEntry{{Backend: "python", ID: "py"}},
		},
	}
}

func TestValidate_Fixtures(t *testing.T) {
	tests := []struct {
		file     string
		wantPath string // empty means valid
	}{
		{"valid-minimal.yaml", ""},
		{"valid-full.yaml", ""},
		{"invalid-empty-execution.yaml", "/runtime/execution"},
		{"invalid-version.yaml", "/adp_version"},
		{"invalid-missing-backend.yaml", "/runtime/execution/0/backend"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			def, err := Load(testPath(tt.file))
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			err = Validate(def)
			if tt.wantPath == "" {
				if err != nil {
					t.Errorf("Validate error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate error = %v, want *ValidationError", err)
			}
			if !hasIssueAt(ve.Issues, tt.wantPath) {
				t.Errorf("issues %+v lack path %s", ve.Issues, tt.wantPath)
			}
		})
	}
}

func TestValidate_Versions(t *testing.T) {
	tests := []struct {
		version string
		valid   bool
	}{
		{"0.1.0", true},
		{"0.2.0", true},
		{"0.3.0", false},
		{"1.0.0", false},
		{"0.1", false},
		{"v0.1.0", false},
		{"latest", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			def := validDefinition()
			def.ADPVersion = tt.version
			err := Validate(def)
			if tt.valid && err != nil {
				t.Errorf("Validate(%q) error: %v", tt.version, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Validate(%q) accepted an unsupported version", tt.version)
			}
		})
	}
}

func TestValidate_DuplicateExecutionIDs(t *testing.T) {
	def := validDefinition()
	def.Runtime.Execution = append(def.Runtime.Execution, ExecutionEntry{Backend: "docker", ID: "py"})

	err := Validate(def)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if !hasIssueAt(ve.Issues, "/runtime/execution/1/id") {
		t.Errorf("issues = %+v", ve.Issues)
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	def := &Definition{ADPVersion: "9.9.9"}
	err := Validate(def)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	for _, path := range []string{"/adp_version", "/id", "/runtime/execution"} {
		if !hasIssueAt(ve.Issues, path) {
			t.Errorf("missing issue at %s in %+v", path, ve.Issues)
		}
	}
	if !strings.HasPrefix(err.Error(), "invalid definition: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func hasIssueAt(issues []ValidationIssue, path string) bool {
	for _, issue := range issues {
		if issue.Path == path {
			return true
		}
	}
	return false
}

package definition

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SupportedVersions are the adp_version values this tool packages.
var SupportedVersions = []string{"0.1.0", "0.2.0"}

// ValidationIssue is a single rule or schema violation.
type ValidationIssue struct {
	Path    string // Instance location (e.g., "/runtime/execution/0/backend")
	Message string // Human-readable error message
	Keyword string // Schema keyword that failed; empty for rule checks
}

// ValidationError collects every issue found in a definition.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path != "" {
			parts = append(parts, issue.Path+": "+issue.Message)
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return "invalid definition: " + strings.Join(parts, "; ")
}

// Validate applies the packaging rules: a supported adp_version, a non-empty
// id, and at least one execution entry, each with a backend and a unique id.
// It returns a *ValidationError listing every violation.
func Validate(def *Definition) error {
	if def == nil {
		return &ValidationError{Issues: []ValidationIssue{{Message: "definition is missing"}}}
	}

	var issues []ValidationIssue
	add := func(path, format string, args ...interface{}) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if msg := checkVersion(def.ADPVersion); msg != "" {
		add("/adp_version", "%s", msg)
	}
	if strings.TrimSpace(def.ID) == "" {
		add("/id", "id must not be empty")
	}

	if len(def.Runtime.Execution) == 0 {
		add("/runtime/execution", "runtime.execution must not be empty")
	}
	seen := make(map[string]int)
	for i, entry := range def.Runtime.Execution {
		base := fmt.Sprintf("/runtime/execution/%d", i)
		if strings.TrimSpace(entry.Backend) == "" {
			add(base+"/backend", "backend is required")
		}
		if strings.TrimSpace(entry.ID) == "" {
			add(base+"/id", "id is required")
			continue
		}
		if first, dup := seen[entry.ID]; dup {
			add(base+"/id", "duplicate execution id %q (first used at index %d)", entry.ID, first)
			continue
		}
		seen[entry.ID] = i
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// checkVersion returns a message when version is not a supported semver,
// or "" when it is acceptable.
func checkVersion(version string) string {
	if version == "" {
		return "adp_version is required"
	}
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return fmt.Sprintf("adp_version %q is not a semantic version", version)
	}
	for _, supported := range SupportedVersions {
		if v.Equal(semver.MustParse(supported)) {
			return ""
		}
	}
	return fmt.Sprintf("adp_version must be one of %s, got %s", strings.Join(SupportedVersions, ", "), version)
}

//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // HOME, so ~/.adpkg/config.yaml is sandboxed
	ProjectDir string // An agent project with adp/agent.yaml
	OutputDir  string // Where packages are written, outside the project
}

// setupTestEnv creates isolated temp directories and points HOME at one of
// them. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
		OutputDir:  t.TempDir(),
	}

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("USERPROFILE", env.HomeDir)
	return env
}

// setupProject writes a small but realistic agent project into dir.
func setupProject(t *testing.T, dir string) {
	t.Helper()

	writeFile(t, filepath.Join(dir, "adp", "agent.yaml"), `adp_version: "0.2.0"
id: agent.support-triage
name: Support Triage
description: Routes inbound tickets to the right queue.
runtime:
  execution:
    - backend: python
      id: py
      entrypoint: triage.main:app
      env:
        LOG_LEVEL: info
    - backend: docker
      id: container
      image: ghcr.io/example/triage:1.4.2
  models:
    - id: primary
      provider: openai
      model: gpt-4o-mini
      api_key_env: OPENAI_API_KEY
      temperature: 0.2
flow:
  graph:
    nodes:
      - id: classify
      - id: route
    edges:
      - from: classify
        to: route
evaluation:
  suites:
    - name: smoke
`)
	writeFile(t, filepath.Join(dir, "triage", "__init__.py"), "")
	writeFile(t, filepath.Join(dir, "triage", "main.py"), "def app(event):\n    return 'billing'\n")
	writeFile(t, filepath.Join(dir, "prompts", "classify.txt"), "Classify the ticket.\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# Support Triage\n")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main\n")
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mireval/internal/config"
	"mireval/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	env := &cliTestEnv{
		cfg:        cfg,
		baseDir:    base,
		configPath: filepath.Join(base, "mireval.toml"),
	}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	encoded, err := e.cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(e.configPath, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) path(parts ...string) string {
	return filepath.Join(append([]string{e.baseDir}, parts...)...)
}

// writeGenreDataset lays out two folds over three genres and points the
// config at them.
func (e *cliTestEnv) writeGenreDataset(t *testing.T) {
	t.Helper()
	testsupport.WriteLines(t, e.path("data", "groundtruth.txt"),
		"t1\tblues", "t2\tjazz", "t3\trock", "t4\tblues")
	testsupport.WriteFile(t, e.path("data", "folds.yaml"), strings.Join([]string{
		"dataset:",
		"  name: tiny",
		"folds:",
		"  - id: fold1",
		"    track_ids: [t1, t2]",
		"  - id: fold2",
		"    track_ids: [t3, t4]",
		"",
	}, "\n"))
	e.cfg.Dataset.GroundTruth = e.path("data", "groundtruth.txt")
	e.cfg.Dataset.FoldManifest = e.path("data", "folds.yaml")
	e.writeConfig(t)
}

// writeGenreSubmission gets three of four tracks right.
func (e *cliTestEnv) writeGenreSubmission(t *testing.T, name string) string {
	t.Helper()
	dir := e.path("submissions", name)
	testsupport.WriteLines(t, filepath.Join(dir, "fold1.txt"), "t1\tblues", "t2\tjazz")
	testsupport.WriteLines(t, filepath.Join(dir, "fold2.txt"), "t3\trock", "t4\tjazz")
	return dir
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

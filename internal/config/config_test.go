package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mireval/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "mireval", "results")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Task.Family != "classification" {
		t.Fatalf("unexpected family: %q", cfg.Task.Family)
	}
	if cfg.Task.SubjectField != "genre" {
		t.Fatalf("unexpected subject field: %q", cfg.Task.SubjectField)
	}
	if cfg.Onset.Tolerance != 0.05 {
		t.Fatalf("unexpected tolerance: %v", cfg.Onset.Tolerance)
	}
	if !cfg.Classification.CleanLabels {
		t.Fatal("expected label cleaning enabled by default")
	}
	if cfg.Report.Format != "table" {
		t.Fatalf("unexpected report format: %q", cfg.Report.Format)
	}
}

func TestLoadResolvesDatasetPathsRelativeToConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "mireval.toml")
	content := `
[task]
family = "onset"

[dataset]
ground_truth = "gt/onsets"
fold_manifest = "folds.yaml"

[onset]
tolerance = 0.07
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if got, want := cfg.Dataset.GroundTruth, filepath.Join(dir, "gt", "onsets"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got, want := cfg.Dataset.FoldManifest, filepath.Join(dir, "folds.yaml"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if cfg.Task.SubjectField != "onsets" {
		t.Fatalf("expected onset subject default, got %q", cfg.Task.SubjectField)
	}
	if cfg.Onset.Tolerance != 0.07 {
		t.Fatalf("unexpected tolerance: %v", cfg.Onset.Tolerance)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mireval.toml")
	if err := os.WriteFile(path, []byte("[task]\nflavour = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	out := t.TempDir()
	t.Setenv("MIREVAL_OUTPUT_DIR", out)
	t.Setenv("MIREVAL_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != out {
		t.Fatalf("got %q want %q", cfg.Paths.OutputDir, out)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("got %q want %q", cfg.Logging.Level, "debug")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"family", func(c *config.Config) { c.Task.Family = "beat" }, "task.family"},
		{"tolerance", func(c *config.Config) { c.Onset.Tolerance = -0.1 }, "onset.tolerance"},
		{"hierarchy on onset", func(c *config.Config) {
			c.Task.Family = "onset"
			c.Classification.HierarchyFile = "/tmp/h.txt"
		}, "hierarchy_file"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"report format", func(c *config.Config) { c.Report.Format = "html" }, "report.format"},
		{"precision", func(c *config.Config) { c.Report.Precision = 40 }, "report.precision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample does not parse: %v", err)
	}
	if decoded.Task.Family != "classification" {
		t.Fatalf("unexpected sample family %q", decoded.Task.Family)
	}
	if decoded.Onset.Tolerance != 0.05 {
		t.Fatalf("unexpected sample tolerance %v", decoded.Onset.Tolerance)
	}
}

func TestEncodeIncludesSections(t *testing.T) {
	cfg := config.Default()
	text, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, section := range []string{"[paths]", "[task]", "[onset]", "[report]"} {
		if !strings.Contains(text, section) {
			t.Fatalf("encoded config missing %s:\n%s", section, text)
		}
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/data")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if want := filepath.Join(home, "data"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

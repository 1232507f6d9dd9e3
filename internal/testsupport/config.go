package testsupport

import (
	"path/filepath"
	"testing"

	"mireval/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "results")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.RepositoryDB = filepath.Join(base, "repository.db")
	cfgVal.Task.SubjectField = "genre"
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithFamily switches the task family and its default subject field.
func WithFamily(family string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Task.Family = family
		if family == "onset" {
			b.cfg.Task.SubjectField = "onsets"
		}
	}
}

// WithHierarchy writes content to a lattice file under the base dir and
// points the classification section at it.
func WithHierarchy(content string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "hierarchy.txt")
		WriteFile(b.t, path, content)
		b.cfg.Classification.HierarchyFile = path
	}
}

// WithReportFormat overrides the report format.
func WithReportFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Report.Format = format
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

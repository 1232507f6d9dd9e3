package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mireval/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	RepositoryDB string `toml:"repository_db"`
}

// Task identifies the evaluated task and its scoring family.
type Task struct {
	ID           int    `toml:"id"`
	Name         string `toml:"name"`
	Description  string `toml:"description"`
	SubjectField string `toml:"subject_field"`
	Family       string `toml:"family"`
}

// Dataset points at the ground truth and fold declarations for the task.
type Dataset struct {
	ID           int    `toml:"id"`
	Name         string `toml:"name"`
	Description  string `toml:"description"`
	GroundTruth  string `toml:"ground_truth"`
	FoldManifest string `toml:"fold_manifest"`
}

// Classification contains settings for the classification family.
type Classification struct {
	// HierarchyFile enables discounted accuracy when set. Tab-delimited,
	// one "class<TAB>ancestor<TAB>..." path per line.
	HierarchyFile string `toml:"hierarchy_file"`
	// CleanLabels canonicalizes ground-truth and predicted labels before
	// comparison (case, accents, punctuation). Default: true
	CleanLabels bool `toml:"clean_labels"`
}

// Onset contains settings for event-sequence scoring.
type Onset struct {
	// Tolerance is the matching window in seconds. Default: 0.05
	Tolerance float64 `toml:"tolerance"`
	// ClassField names the ground-truth field used for the per-class breakdown.
	ClassField string `toml:"class_field"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Report contains configuration for result output.
type Report struct {
	Format    string `toml:"format"`
	Precision int    `toml:"precision"`
}

// Config encapsulates all configuration values for mireval.
//
// Configuration sections by subsystem:
//   - Paths: output, log, and repository locations
//   - Task: the evaluated task and scoring family
//   - Dataset: ground truth and fold manifest files
//   - Classification: hierarchy and label cleaning
//   - Onset: tolerance window and class field
//   - Logging: log format and level
//   - Report: result output format
type Config struct {
	Paths          Paths          `toml:"paths"`
	Task           Task           `toml:"task"`
	Dataset        Dataset        `toml:"dataset"`
	Classification Classification `toml:"classification"`
	Onset          Onset          `toml:"onset"`
	Logging        Logging        `toml:"logging"`
	Report         Report         `toml:"report"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.resolveRelative(filepath.Dir(resolvedPath)); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mireval.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// resolveRelative anchors relative dataset paths at the config file's directory
// so a config can travel with its data.
func (c *Config) resolveRelative(base string) error {
	for _, p := range []*string{
		&c.Dataset.GroundTruth,
		&c.Dataset.FoldManifest,
		&c.Classification.HierarchyFile,
	} {
		value := strings.TrimSpace(*p)
		if value == "" || filepath.IsAbs(value) || strings.HasPrefix(value, "~") {
			continue
		}
		*p = filepath.Join(base, value)
	}
	return nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return b.String(), nil
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDataset(); err != nil {
		return err
	}
	c.normalizeTask()
	c.normalizeOnset()
	c.normalizeLogging()
	c.normalizeReport()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("MIREVAL_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RepositoryDB) == "" {
		c.Paths.RepositoryDB = defaultRepositoryDB
	}
	if c.Paths.RepositoryDB, err = expandPath(strings.TrimSpace(c.Paths.RepositoryDB)); err != nil {
		return fmt.Errorf("paths.repository_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() error {
	var err error
	c.Dataset.Name = strings.TrimSpace(c.Dataset.Name)
	if c.Dataset.GroundTruth, err = expandPath(strings.TrimSpace(c.Dataset.GroundTruth)); err != nil {
		return fmt.Errorf("dataset.ground_truth: %w", err)
	}
	if c.Dataset.FoldManifest, err = expandPath(strings.TrimSpace(c.Dataset.FoldManifest)); err != nil {
		return fmt.Errorf("dataset.fold_manifest: %w", err)
	}
	if c.Classification.HierarchyFile, err = expandPath(strings.TrimSpace(c.Classification.HierarchyFile)); err != nil {
		return fmt.Errorf("classification.hierarchy_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeTask() {
	c.Task.Name = strings.TrimSpace(c.Task.Name)
	c.Task.Family = strings.ToLower(strings.TrimSpace(c.Task.Family))
	if c.Task.Family == "" {
		c.Task.Family = defaultTaskFamily
	}
	c.Task.SubjectField = strings.TrimSpace(c.Task.SubjectField)
	if c.Task.SubjectField == "" {
		switch c.Task.Family {
		case "onset":
			c.Task.SubjectField = "onsets"
		default:
			c.Task.SubjectField = defaultSubjectField
		}
	}
}

func (c *Config) normalizeOnset() {
	if c.Onset.Tolerance == 0 {
		c.Onset.Tolerance = defaultOnsetTolerance
	}
	c.Onset.ClassField = strings.TrimSpace(c.Onset.ClassField)
	if c.Onset.ClassField == "" {
		c.Onset.ClassField = defaultOnsetClass
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if value, ok := os.LookupEnv("MIREVAL_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeReport() {
	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	if c.Report.Format == "" {
		c.Report.Format = defaultReportFormat
	}
	if c.Report.Precision == 0 {
		c.Report.Precision = defaultReportDigits
	}
}

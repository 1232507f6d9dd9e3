package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTask(); err != nil {
		return err
	}
	if err := c.validateOnset(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateReport()
}

func (c *Config) validateTask() error {
	switch c.Task.Family {
	case "classification", "onset":
	default:
		return fmt.Errorf("task.family must be one of classification, onset (got %q)", c.Task.Family)
	}
	if c.Task.Family == "onset" && c.Classification.HierarchyFile != "" {
		return errors.New("classification.hierarchy_file is only valid for the classification family")
	}
	return nil
}

func (c *Config) validateOnset() error {
	if c.Onset.Tolerance <= 0 {
		return errors.New("onset.tolerance must be positive")
	}
	if c.Onset.Tolerance > 1 {
		return fmt.Errorf("onset.tolerance %.3fs is implausibly large (max 1s)", c.Onset.Tolerance)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
}

func (c *Config) validateReport() error {
	switch c.Report.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("report.format must be table, json, or yaml (got %q)", c.Report.Format)
	}
	if c.Report.Precision < 1 || c.Report.Precision > 12 {
		return errors.New("report.precision must be between 1 and 12")
	}
	return nil
}

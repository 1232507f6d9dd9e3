package config

const (
	defaultConfigPath     = "~/.config/mireval/config.toml"
	defaultOutputDir      = "~/.local/share/mireval/results"
	defaultLogDir         = "~/.local/share/mireval/logs"
	defaultRepositoryDB   = "~/.local/share/mireval/repository.db"
	defaultTaskName       = "Genre Classification"
	defaultTaskFamily     = "classification"
	defaultSubjectField   = "genre"
	defaultOnsetTolerance = 0.05
	defaultOnsetClass     = "class"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultReportFormat   = "table"
	defaultReportDigits   = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			RepositoryDB: defaultRepositoryDB,
		},
		Task: Task{
			Name:   defaultTaskName,
			Family: defaultTaskFamily,
		},
		Classification: Classification{
			CleanLabels: true,
		},
		Onset: Onset{
			Tolerance:  defaultOnsetTolerance,
			ClassField: defaultOnsetClass,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Report: Report{
			Format:    defaultReportFormat,
			Precision: defaultReportDigits,
		},
	}
}

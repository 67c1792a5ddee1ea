package models

import "time"

// LoggingConfig holds settings for the log front end.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // slog level name: "debug" | "info" | "warn" | "error"
	ErrorFiles bool   `yaml:"error_files"` // write error_<ts>.log side files on dispatcher errors
	ErrorDir   string `yaml:"error_dir"`   // "" or "." = working directory
}

// ConsoleConfig holds settings for the console controller.
type ConsoleConfig struct {
	ReattachParent bool `yaml:"reattach_parent"` // re-attach to the parent console after Hide Logs
}

// WorkerConfig holds settings for worker processes.
type WorkerConfig struct {
	Executable  string        `yaml:"executable"` // "" = this executable
	Flag        string        `yaml:"flag"`
	TagLines    bool          `yaml:"tag_lines"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
}

// TrayConfig holds tray icon settings.
type TrayConfig struct {
	Title   string `yaml:"title"`
	Tooltip string `yaml:"tooltip"`
}

// Settings represents global application settings.
// This corresponds to ~/.logtray/settings.yaml.
type Settings struct {
	Version int           `yaml:"version"`
	Logging LoggingConfig `yaml:"logging"`
	Console ConsoleConfig `yaml:"console"`
	Worker  WorkerConfig  `yaml:"worker"`
	Tray    TrayConfig    `yaml:"tray"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Logging: LoggingConfig{
			Level:      "debug",
			ErrorFiles: true,
			ErrorDir:   ".",
		},
		Console: ConsoleConfig{
			ReattachParent: true,
		},
		Worker: WorkerConfig{
			Flag:        "--worker",
			TagLines:    true,
			StopTimeout: 5 * time.Second,
			Heartbeat:   2 * time.Second,
		},
		Tray: TrayConfig{
			Title:   "logtray",
			Tooltip: "logtray: background log console",
		},
	}
}

// Normalize fills zero values left by a partial settings file with defaults.
func (s *Settings) Normalize() {
	def := NewSettings()
	if s.Version == 0 {
		s.Version = def.Version
	}
	if s.Logging.Level == "" {
		s.Logging.Level = def.Logging.Level
	}
	if s.Logging.ErrorDir == "" {
		s.Logging.ErrorDir = def.Logging.ErrorDir
	}
	// This executable only understands its own worker flag; a custom flag
	// is kept only for a custom worker executable.
	if s.Worker.Flag == "" || (s.Worker.Executable == "" && s.Worker.Flag != def.Worker.Flag) {
		s.Worker.Flag = def.Worker.Flag
	}
	if s.Worker.StopTimeout <= 0 {
		s.Worker.StopTimeout = def.Worker.StopTimeout
	}
	if s.Worker.Heartbeat <= 0 {
		s.Worker.Heartbeat = def.Worker.Heartbeat
	}
	if s.Tray.Title == "" {
		s.Tray.Title = def.Tray.Title
	}
	if s.Tray.Tooltip == "" {
		s.Tray.Tooltip = def.Tray.Tooltip
	}
}

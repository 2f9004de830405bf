package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TransferMode selects how a payload is moved into the archive
type TransferMode string

const (
	// TransferCopy copies, verifies, then deletes the source. Works across volumes.
	TransferCopy TransferMode = "copy"
	// TransferRename uses a single rename. Fails across volumes.
	TransferRename TransferMode = "rename"
)

const (
	DefaultPayloadName = "result.jpg"
	OverrideFileName   = "settings.dev.yaml"
	primaryFileName    = "settings.yaml"
	appDirName         = "notefiler"
	envScansPath       = "NOTEFILER_SCANS_PATH"
	envNotesPath       = "NOTEFILER_NOTES_PATH"
	envTransfer        = "NOTEFILER_TRANSFER"
	envPayloadName     = "NOTEFILER_PAYLOAD"
)

// Paths holds the two configured roots
type Paths struct {
	ScansPath string `yaml:"scans_path"`
	NotesPath string `yaml:"notes_path"`
}

// Config holds the unified application configuration
type Config struct {
	Paths
	PayloadName string
	Transfer    TransferMode
	LogDir      string
}

// Settings represents the config file structure
type Settings struct {
	ScansPath   string `yaml:"scans_path"`
	NotesPath   string `yaml:"notes_path"`
	PayloadName string `yaml:"payload_name,omitempty"`
	Transfer    string `yaml:"transfer,omitempty"`
	LogDir      string `yaml:"log_dir,omitempty"`
}

// CLIFlags holds parsed CLI flags
type CLIFlags struct {
	ConfigFile string
	ScansPath  string
	NotesPath  string
	Transfer   string
}

// SettingsValidationError is returned when a configured root is unusable
type SettingsValidationError struct {
	Message string
}

func (e *SettingsValidationError) Error() string {
	return "SettingsValidationError: " + e.Message
}

// Load loads configuration with priority:
// CLI flags > env vars > override file > primary file > defaults
func Load(flags CLIFlags) (*Config, error) {
	cfg := &Config{
		PayloadName: DefaultPayloadName,
		Transfer:    TransferCopy,
	}

	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()

	primary := flags.ConfigFile
	if primary == "" {
		p, err := getConfigPath()
		if err != nil {
			return nil, err
		}
		primary = p
	}

	// Priority 4: primary settings file
	if err := applyFile(cfg, primary); err != nil {
		return nil, err
	}

	// Priority 3: override file in the working directory
	if err := applyFile(cfg, OverrideFileName); err != nil {
		return nil, err
	}

	// Priority 2: environment variables
	if v := os.Getenv(envScansPath); v != "" {
		cfg.ScansPath = expandPath(v)
	}
	if v := os.Getenv(envNotesPath); v != "" {
		cfg.NotesPath = expandPath(v)
	}
	if v := os.Getenv(envTransfer); v != "" {
		cfg.Transfer = TransferMode(v)
	}
	if v := os.Getenv(envPayloadName); v != "" {
		cfg.PayloadName = v
	}

	// Priority 1: CLI flags override everything
	if flags.ScansPath != "" {
		cfg.ScansPath = expandPath(flags.ScansPath)
	}
	if flags.NotesPath != "" {
		cfg.NotesPath = expandPath(flags.NotesPath)
	}
	if flags.Transfer != "" {
		cfg.Transfer = TransferMode(flags.Transfer)
	}

	switch cfg.Transfer {
	case TransferCopy, TransferRename:
	default:
		return nil, fmt.Errorf("unknown transfer mode %q (want %q or %q)", cfg.Transfer, TransferCopy, TransferRename)
	}

	if cfg.LogDir == "" {
		if dir, err := GetConfigDir(); err == nil {
			cfg.LogDir = dir
		}
	}

	return cfg, nil
}

// applyFile layers a settings file over cfg. A missing file is not an error.
func applyFile(cfg *Config, path string) error {
	settings, err := loadConfigFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if settings.ScansPath != "" {
		cfg.ScansPath = expandPath(settings.ScansPath)
	}
	if settings.NotesPath != "" {
		cfg.NotesPath = expandPath(settings.NotesPath)
	}
	if settings.PayloadName != "" {
		cfg.PayloadName = settings.PayloadName
	}
	if settings.Transfer != "" {
		cfg.Transfer = TransferMode(settings.Transfer)
	}
	if settings.LogDir != "" {
		cfg.LogDir = expandPath(settings.LogDir)
	}
	return nil
}

// loadConfigFile loads configuration from the settings file
func loadConfigFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate checks that both roots exist and are directories.
// It is only run at startup.
func (p Paths) Validate() error {
	if err := checkDir("Notes", p.NotesPath); err != nil {
		return err
	}
	return checkDir("Scans", p.ScansPath)
}

func checkDir(label, path string) error {
	if path == "" {
		return &SettingsValidationError{Message: fmt.Sprintf("%s path is not configured", label)}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &SettingsValidationError{Message: fmt.Sprintf("%s path does not exist: %s", label, path)}
	}
	if !info.IsDir() {
		return &SettingsValidationError{Message: fmt.Sprintf("%s path is not a directory: %s", label, path)}
	}
	return nil
}

// GetConfigDir returns the directory holding the settings file
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appDirName), nil
}

// getConfigPath returns the path to the primary configuration file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, primaryFileName), nil
}

const defaultSettingsTemplate = `# notefiler settings
# scans_path: inbox holding one directory per scan
# notes_path: archive root, laid out as year/month/day/NNN
scans_path: %s
notes_path: %s
payload_name: %s
# copy (works across volumes) or rename
transfer: %s
`

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	data := fmt.Sprintf(defaultSettingsTemplate,
		quote(filepath.Join(homeDir, "scans")),
		quote(filepath.Join(homeDir, "notes")),
		DefaultPayloadName,
		TransferCopy,
	)

	return os.WriteFile(configPath, []byte(data), 0644)
}

func quote(s string) string {
	out, err := yaml.Marshal(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(string(out))
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

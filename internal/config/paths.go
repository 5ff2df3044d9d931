package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "BNSHELL_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "bnshell.yaml"
	// ConfigDirName is the per-user and system directory name
	ConfigDirName = "bnshell"
)

// FindConfigPath returns the first existing config file, in order:
// $BNSHELL_CONFIG, ./bnshell.yaml, $XDG_CONFIG_HOME/bnshell/config.yaml,
// ~/.config/bnshell/config.yaml, /etc/bnshell/config.yaml.
// An empty string means none exists and defaults apply.
func FindConfigPath() string {
	for _, path := range configCandidates() {
		if fileExists(path) {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

func configCandidates() []string {
	var paths []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		paths = append(paths, path)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// DefaultConfigPath is where `config init` writes when no path is given
func DefaultConfigPath() string {
	return userPath("XDG_CONFIG_HOME", ".config", "config.yaml", ConfigFileName)
}

// DefaultJournalPath places the session journal under the XDG state directory
func DefaultJournalPath() string {
	return userPath("XDG_STATE_HOME", filepath.Join(".local", "state"), "journal.db", "bnshell.db")
}

// userPath resolves $xdgVar/bnshell/file, then ~/homeDir/bnshell/file, then fallback
func userPath(xdgVar, homeDir, file, fallback string) string {
	if dir := os.Getenv(xdgVar); dir != "" {
		return filepath.Join(dir, ConfigDirName, file)
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, homeDir, ConfigDirName, file)
	}
	return fallback
}

// EnsureConfigDir creates the parent directory of configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

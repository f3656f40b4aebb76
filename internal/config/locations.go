package config

import (
	"os"
	"path/filepath"
)

func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "stakehut")
	}
	return filepath.Join(home, ".config", "stakehut")
}

func ConfigFilePath() string {
	exe, err := os.Executable()
	if err == nil {
		adjacent := filepath.Join(filepath.Dir(exe), "stakehut.toml")
		if _, err := os.Stat(adjacent); err == nil {
			return adjacent
		}
	}
	return filepath.Join(ConfigDir(), "stakehut.toml")
}

func StateFilePath() string {
	return filepath.Join(ConfigDir(), "state.json")
}

func LogFilePath() string {
	return filepath.Join(ConfigDir(), "stakehut.log")
}

// NetworkFilePath holds the simulated network between runs.
func NetworkFilePath() string {
	return filepath.Join(ConfigDir(), "network.json")
}

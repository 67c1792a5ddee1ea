package config

import (
	"github.com/watchfire-io/logtray/internal/models"
)

// LoadSettings loads the global settings from ~/.logtray/settings.yaml.
// Keys missing from the file keep their default values.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFile(path)
}

// LoadSettingsFile loads settings from an explicit path. A missing file
// yields the defaults.
func LoadSettingsFile(path string) (*models.Settings, error) {
	settings := models.NewSettings()
	if !FileExists(path) {
		return settings, nil
	}
	if err := LoadYAML(path, settings); err != nil {
		return nil, err
	}
	settings.Normalize()
	return settings, nil
}

// SaveSettings saves the global settings to ~/.logtray/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

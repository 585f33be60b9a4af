package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"localfund/internal/config"
)

// TablePrefs stores per-table UI preferences.
type TablePrefs struct {
	SortKey       string   `json:"sort_key"`
	SortDesc      bool     `json:"sort_desc"`
	HiddenColumns []string `json:"hidden_columns"`
	ActiveColumn  string   `json:"active_column"`
}

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	Restaurants   TablePrefs `json:"restaurants"`
	Specialties   TablePrefs `json:"specialties"`
	Posts         TablePrefs `json:"posts"`
	Requests      TablePrefs `json:"requests"`
	Notifications TablePrefs `json:"notifications"`
	Fundings      TablePrefs `json:"fundings"`
	Orders        TablePrefs `json:"orders"`
	MyRequests    TablePrefs `json:"my_requests"`
	Wishlist      TablePrefs `json:"wishlist"`
	ForOne        TablePrefs `json:"for_one"`
	SearchResults TablePrefs `json:"search_results"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{}
}

// DefaultPrefsPath returns ~/.localfund/ui_prefs.json.
func DefaultPrefsPath() string {
	return filepath.Join(config.DefaultDir(), "ui_prefs.json")
}

func loadUIPreferences(path string) UIPreferences {
	if path == "" {
		return defaultUIPreferences()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaultUIPreferences()
	}

	var prefs UIPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	return prefs
}

func saveUIPreferences(path string, prefs UIPreferences) error {
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}

package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/PlateNest/internal/model"
)

// DefaultProfilesPath returns the default file path for custom plate profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "plates.json")
}

// SaveCustomProfiles saves custom plate profiles to a JSON file.
func SaveCustomProfiles(path string, profiles []model.PlateProfile) error {
	return writeJSON(path, profiles)
}

// LoadCustomProfiles loads custom plate profiles from a JSON file.
// Returns an empty slice if the file does not exist.
func LoadCustomProfiles(path string) ([]model.PlateProfile, error) {
	var profiles []model.PlateProfile
	if err := readJSONIfExists(path, &profiles); err != nil {
		return nil, err
	}

	// Ensure loaded profiles are not marked as built-in
	for i := range profiles {
		profiles[i].IsBuiltIn = false
	}
	if profiles == nil {
		profiles = []model.PlateProfile{}
	}
	return profiles, nil
}

// ExportProfile exports a single plate profile to a JSON file (for sharing).
func ExportProfile(path string, profile model.PlateProfile) error {
	profile.IsBuiltIn = false
	return writeJSON(path, profile)
}

// ImportProfile imports a single plate profile from a JSON file.
func ImportProfile(path string) (model.PlateProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PlateProfile{}, err
	}

	var profile model.PlateProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return model.PlateProfile{}, err
	}

	profile.IsBuiltIn = false
	if profile.Name == "" {
		return model.PlateProfile{}, errors.New("imported profile has no name")
	}
	if profile.Width <= 0 || profile.Depth <= 0 {
		return model.PlateProfile{}, errors.New("imported profile has no plate size")
	}
	return profile, nil
}

// UpsertProfile returns profiles with p added, replacing a custom profile of
// the same name. Built-in names cannot be taken over.
func UpsertProfile(profiles []model.PlateProfile, p model.PlateProfile) ([]model.PlateProfile, error) {
	if p.Name == "" {
		return nil, errors.New("plate profile has no name")
	}
	if p.Width <= 0 || p.Depth <= 0 {
		return nil, fmt.Errorf("plate profile %q has no plate size", p.Name)
	}
	for _, builtIn := range model.PlateProfiles {
		if strings.EqualFold(builtIn.Name, p.Name) {
			return nil, fmt.Errorf("plate profile %q is built in", p.Name)
		}
	}
	p.IsBuiltIn = false

	updated := make([]model.PlateProfile, 0, len(profiles)+1)
	replaced := false
	for _, existing := range profiles {
		if existing.Name == p.Name {
			updated = append(updated, p)
			replaced = true
			continue
		}
		updated = append(updated, existing)
	}
	if !replaced {
		updated = append(updated, p)
	}
	return updated, nil
}

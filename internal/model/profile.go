package model

// PlateProfile describes a printer's build plate. Built-in profiles replace
// reaching into a global machine manager: callers pick one by name and pass
// the resulting Plate explicitly.
type PlateProfile struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	IsBuiltIn        bool    `json:"is_built_in"`
	Width            float64 `json:"width"`             // mm
	Depth            float64 `json:"depth"`             // mm
	DisallowedMargin float64 `json:"disallowed_margin"` // mm along every edge (clips, wipe areas)
}

// Plate converts the profile into the plate description used by the arranger.
func (p PlateProfile) Plate() Plate {
	return Plate{
		Name:             p.Name,
		Width:            p.Width,
		Depth:            p.Depth,
		DisallowedMargin: p.DisallowedMargin,
	}
}

// Built-in plate profiles
var PlateProfiles = []PlateProfile{
	{
		Name:        "Ultimaker S5",
		Description: "Ultimaker S5 glass plate",
		IsBuiltIn:   true,
		Width:       330,
		Depth:       240,
	},
	{
		Name:             "Ultimaker 3",
		Description:      "Ultimaker 3 glass plate with clip zones",
		IsBuiltIn:        true,
		Width:            215,
		Depth:            215,
		DisallowedMargin: 3,
	},
	{
		Name:        "Prusa MK4",
		Description: "Original Prusa MK4 steel sheet",
		IsBuiltIn:   true,
		Width:       250,
		Depth:       210,
	},
	{
		Name:        "Creality Ender 3",
		Description: "Creality Ender 3 / Ender 3 V2",
		IsBuiltIn:   true,
		Width:       220,
		Depth:       220,
	},
	{
		Name:        "Generic",
		Description: "Generic 200 x 200 mm plate",
		IsBuiltIn:   true,
		Width:       200,
		Depth:       200,
	},
}

// CustomProfiles holds user-defined plate profiles loaded at runtime.
var CustomProfiles []PlateProfile

// AllPlateProfiles returns built-in profiles followed by custom ones.
func AllPlateProfiles() []PlateProfile {
	all := make([]PlateProfile, 0, len(PlateProfiles)+len(CustomProfiles))
	all = append(all, PlateProfiles...)
	all = append(all, CustomProfiles...)
	return all
}

// GetPlateProfile returns a plate profile by name, or the Generic profile if not found.
func GetPlateProfile(name string) PlateProfile {
	for _, p := range AllPlateProfiles() {
		if p.Name == name {
			return p
		}
	}
	return PlateProfiles[len(PlateProfiles)-1] // Generic (last one)
}

// GetPlateProfileNames returns a list of all available profile names.
func GetPlateProfileNames() []string {
	var names []string
	for _, p := range AllPlateProfiles() {
		names = append(names, p.Name)
	}
	return names
}

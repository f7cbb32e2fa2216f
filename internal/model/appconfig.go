package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default arrangement settings applied to new jobs
	DefaultMargin       float64   `json:"default_margin"`
	DefaultScale        float64   `json:"default_scale"`
	DefaultStep         int       `json:"default_step"`
	DefaultAlgorithm    Algorithm `json:"default_algorithm"`
	DefaultClearance    Clearance `json:"default_clearance"`
	DefaultPlateProfile string    `json:"default_plate_profile"`

	// Application preferences
	LogLevel   string   `json:"log_level"` // "debug", "info", "warn", "error"
	RecentJobs []string `json:"recent_jobs"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultMargin:       defaults.Margin,
		DefaultScale:        defaults.Scale,
		DefaultStep:         defaults.Step,
		DefaultAlgorithm:    defaults.Algorithm,
		DefaultClearance:    defaults.Clearance,
		DefaultPlateProfile: "Generic",
		LogLevel:            "info",
		RecentJobs:          []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into an ArrangeSettings struct.
// Zero values in the config leave the corresponding setting untouched.
func (c AppConfig) ApplyToSettings(s *ArrangeSettings) {
	if c.DefaultMargin > 0 {
		s.Margin = c.DefaultMargin
	}
	if c.DefaultScale > 0 {
		s.Scale = c.DefaultScale
	}
	if c.DefaultStep > 0 {
		s.Step = c.DefaultStep
	}
	if c.DefaultAlgorithm != "" {
		s.Algorithm = c.DefaultAlgorithm
	}
	if c.DefaultClearance != "" {
		s.Clearance = c.DefaultClearance
	}
}

// AddRecentJob moves path to the front of the recent list, keeping at most limit entries.
func (c *AppConfig) AddRecentJob(path string, limit int) {
	jobs := []string{path}
	for _, p := range c.RecentJobs {
		if p != path {
			jobs = append(jobs, p)
		}
	}
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	c.RecentJobs = jobs
}

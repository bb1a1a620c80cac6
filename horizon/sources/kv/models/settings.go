package models

// UserSettings is the runtime user configuration snapshot. It is read fresh
// for every chat request, never cached across requests.
type UserSettings struct {
	Language       string `json:"language"`
	InternetAccess bool   `json:"internetAccess"`
	RunAtStartup   bool   `json:"runAtStartup"`
	UserName       string `json:"userName"`
	AutoUpdate     bool   `json:"autoUpdate"`
}

// DefaultUserSettings are the first-launch values.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Language:       "en",
		InternetAccess: false,
		RunAtStartup:   false,
		UserName:       "Admin",
		AutoUpdate:     true,
	}
}

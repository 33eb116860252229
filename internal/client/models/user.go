package models

import "time"

// ReminderRange controls how far ahead the notification scheduler looks.
type ReminderRange string

const (
	RangeWeekly  ReminderRange = "Weekly"
	RangeMonthly ReminderRange = "Monthly"
	RangeYearly  ReminderRange = "Yearly"
)

// ReminderFrequency is how often reminder pings repeat within the range.
type ReminderFrequency string

const (
	FrequencyDaily   ReminderFrequency = "Daily"
	FrequencyWeekly  ReminderFrequency = "Weekly"
	FrequencyMonthly ReminderFrequency = "Monthly"
)

// ReminderSettings is the user's reminder window configuration.
type ReminderSettings struct {
	Range     ReminderRange     `json:"range"`
	Frequency ReminderFrequency `json:"frequency"`
}

// Settings holds per-user preferences.
type Settings struct {
	Theme         string           `json:"theme"`
	DataSharing   bool             `json:"dataSharing"`
	CloudStorage  bool             `json:"cloudStorage"`
	Notifications bool             `json:"notifications"`
	Reminder      ReminderSettings `json:"reminder"`
}

// User is the single active identity record. It is persisted wholesale as one
// JSON document under the userData key; the engine merges fields before
// writing. The remote /update-user snapshot includes the Events set.
type User struct {
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Password   string   `json:"password,omitempty"` // opaque credential, never logged
	Mobile     string   `json:"mobile,omitempty"`
	LoggedIn   bool     `json:"loggedIn"`
	SignupDate string   `json:"signupDate,omitempty"`
	Settings   Settings `json:"settings"`
	Events     []Event  `json:"events,omitempty"`
}

// DefaultSettings returns the preferences a fresh signup starts with.
func DefaultSettings() Settings {
	return Settings{
		Theme:         "light",
		DataSharing:   false,
		CloudStorage:  false,
		Notifications: true,
		Reminder: ReminderSettings{
			Range:     RangeMonthly,
			Frequency: FrequencyMonthly,
		},
	}
}

// NewUser composes a signup-time User record with default settings.
func NewUser(name, email, password, mobile string) *User {
	return &User{
		Email:      email,
		Name:       name,
		Password:   password,
		Mobile:     mobile,
		SignupDate: time.Now().UTC().Format(time.RFC3339),
		Settings:   DefaultSettings(),
	}
}

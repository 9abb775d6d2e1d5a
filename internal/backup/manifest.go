package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive member paths.
const (
	manifestPath   = "manifest.json"
	usersPath      = "users.jsonl"
	listsPath      = "lists.jsonl"
	todosPath      = "todos.jsonl"
	contactsPath   = "contacts.jsonl"
	activitiesPath = "activities.jsonl"
)

// Manifest describes backup contents and metadata.
type Manifest struct {
	FormatVersion string    `json:"format_version"`
	CreatedAt     time.Time `json:"created_at"`

	ServerName    string `json:"server_name"`
	ServerVersion string `json:"server_version"`

	Counts EntityCounts `json:"counts"`

	IncludesActivity bool `json:"includes_activity"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Users      int `json:"users"`
	Lists      int `json:"lists"`
	Todos      int `json:"todos"`
	Contacts   int `json:"contacts"`
	Activities int `json:"activities"`
}

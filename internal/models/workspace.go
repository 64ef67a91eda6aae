package models

import "time"

type Workspace struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Area        string `json:"area,omitempty"`
	Active      bool   `json:"active"`
}

type JournalEntry struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Day         string    `json:"day"` // YYYY-MM-DD format
	Mood        string    `json:"mood,omitempty"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

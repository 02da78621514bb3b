package models

import "time"

// Category display defaults
const (
	DefaultPageHeading = "Hub"
	DefaultPageSubtext = "Explore Categories of Interest"
)

// HubCategory is an admin-managed directory category. Entries reference it by the
// Category name, not by ID.
type HubCategory struct {
	ID          string
	PageHeading string
	PageSubtext string
	Category    string
	Description *string
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HubCategoryUpdate holds the fields to change; nil means unchanged
type HubCategoryUpdate struct {
	PageHeading *string
	PageSubtext *string
	Category    *string
	Description *string
	ImageURL    *string
}

// HubEntry is a user-submitted directory listing. Status false means pending moderation.
type HubEntry struct {
	ID          string
	Name        string
	Email       string
	Category    string
	Description *string
	URL         *string
	Status      bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HubEntryUpdate holds the fields to change; nil means unchanged
type HubEntryUpdate struct {
	Name        *string
	Email       *string
	Category    *string
	Description *string
	URL         *string
	Status      *bool
}

// HubEntryFilter narrows entry listings
type HubEntryFilter struct {
	Status   *bool
	Category *string
	Limit    int
	Offset   int
}

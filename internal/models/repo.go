package models

import "time"

// Repo is one public repository as fetched from GitHub. Immutable once
// fetched; downstream stages only read it.
type Repo struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// DescriptionOrEmpty flattens the nullable description for serialization.
func (r Repo) DescriptionOrEmpty() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// CategorizedRepo is a Repo plus the category label the model assigned to
// it. Exactly one exists per fetched Repo; repos the model could not place
// carry FallbackCategory.
type CategorizedRepo struct {
	Repo
	Category string `json:"category"`
}

// FallbackCategory is assigned when the model's response carries no usable
// category for a repository. Repos are never dropped.
const FallbackCategory = "Uncategorized"

// CategoryGroup is an ordered presentation grouping built by the renderer.
// It is never persisted.
type CategoryGroup struct {
	Name  string
	Repos []CategorizedRepo
}

package model

import "time"

// Dataset is a named collection of uploaded time-series files within a project.
type Dataset struct {
	ID        string        `json:"id"         db:"id"`
	Name      string        `json:"name"       db:"name"`
	ProjectID string        `json:"project_id" db:"project_id"`
	Files     []DatasetFile `json:"files"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// DatasetFile points at one stored time-series document.
type DatasetFile struct {
	ID        string `json:"id"         db:"id"`
	DatasetID string `json:"dataset_id" db:"dataset_id"`
	Name      string `json:"name"       db:"name"`
	URI       string `json:"uri"        db:"uri"`
}

// FileURIs returns the storage locations of all series in the dataset.
func (d *Dataset) FileURIs() []string {
	uris := make([]string, len(d.Files))
	for i, f := range d.Files {
		uris[i] = f.URI
	}
	return uris
}

// Project groups datasets and featuresets under a single owner.
type Project struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"owner_id"    db:"owner_id"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// User is the requesting principal. Full authentication lives outside this
// service; only the token-to-user lookup and the ownership chain are modelled.
type User struct {
	ID        string    `json:"id"         db:"id"`
	Username  string    `json:"username"   db:"username"`
	APIToken  string    `json:"-"          db:"api_token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package directory

import (
	"time"

	"github.com/google/uuid"
)

// Company is a managing entity owning one or more projects.
type Company struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project is a managed property (a condominium/building complex). All
// operational data is row-scoped to a project.
type Project struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Code      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unit is a single residence within a project.
type Unit struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Label     string
	Floor     int
	IsActive  bool
	CreatedAt time.Time
}

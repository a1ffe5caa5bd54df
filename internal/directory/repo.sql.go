package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strataboard/strataboard/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for the tenancy
// directory. It also implements rbac.ProjectDirectory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCompanies returns all active companies.
func (r *Repository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM companies WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// ListProjects returns active projects limited to projectIDs. An empty
// filter returns nothing: callers always pass the resolved accessible set.
func (r *Repository) ListProjects(ctx context.Context, projectIDs []uuid.UUID) ([]Project, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, code, is_active, created_at, updated_at
		FROM projects
		WHERE is_active = TRUE AND id = ANY($1)
		ORDER BY name`, projectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// ListAllProjects returns every active project, for super admin listings.
func (r *Repository) ListAllProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, name, code, is_active, created_at, updated_at
		FROM projects WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// CreateProject inserts a project under a company.
func (r *Repository) CreateProject(ctx context.Context, companyID uuid.UUID, name, code string) (Project, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, company_id, name, code, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		RETURNING id, company_id, name, code, is_active, created_at, updated_at`,
		uuid.New(), companyID, name, code)
	var p Project
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Code, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Project{}, shared.ErrDuplicate
		}
		return Project{}, err
	}
	return p, nil
}

// ListUnits returns active units within a project.
func (r *Repository) ListUnits(ctx context.Context, projectID uuid.UUID) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, label, floor, is_active, created_at
		FROM units WHERE project_id = $1 AND is_active = TRUE ORDER BY floor, label`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.Label, &u.Floor, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// ActiveProjectIDs returns every active project id.
func (r *Repository) ActiveProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM projects WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ActiveProjectIDsByCompany returns the active project ids of one company.
func (r *Repository) ActiveProjectIDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM projects WHERE company_id = $1 AND is_active = TRUE ORDER BY id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ProjectCompany resolves the owning company of a project.
func (r *Repository) ProjectCompany(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error) {
	var companyID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT company_id FROM projects WHERE id = $1`, projectID).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.UUID{}, shared.ErrNotFound
		}
		return uuid.UUID{}, err
	}
	return companyID, nil
}

func scanProjects(rows pgx.Rows) ([]Project, error) {
	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Code, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

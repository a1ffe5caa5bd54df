package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// CatalogIntegrityJob scans the authorization catalog for dangling
// references: role-permission links pointing at missing rows and role
// assignments scoped to inactive companies or projects. Findings are logged,
// never auto-repaired.
type CatalogIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewCatalogIntegrityJob initialises the integrity scan handler.
func NewCatalogIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *CatalogIntegrityJob {
	return &CatalogIntegrityJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type integrityFinding struct {
	Kind   string
	Detail string
}

// Handle executes the catalog integrity scan.
func (j *CatalogIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("catalog integrity: handler not configured")
	}
	var payload CatalogIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxFindings <= 0 {
		payload.MaxFindings = 100
	}
	if j.Pool == nil {
		return errors.New("catalog integrity: pool not configured")
	}

	start := j.now()
	logger := j.logger()
	logger.Info("starting catalog integrity scan", slog.Int("max_findings", payload.MaxFindings))

	var mu sync.Mutex
	var findings []integrityFinding
	collect := func(batch []integrityFinding) {
		mu.Lock()
		findings = append(findings, batch...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		batch, err := j.scanOrphanedRolePermissions(gctx, payload.MaxFindings)
		if err != nil {
			return err
		}
		collect(batch)
		return nil
	})
	g.Go(func() error {
		batch, err := j.scanAssignmentsToInactiveCompanies(gctx, payload.MaxFindings)
		if err != nil {
			return err
		}
		collect(batch)
		return nil
	})
	g.Go(func() error {
		batch, err := j.scanAssignmentsToInactiveProjects(gctx, payload.MaxFindings)
		if err != nil {
			return err
		}
		collect(batch)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, f := range findings {
		logger.Warn("catalog integrity finding",
			slog.String("kind", f.Kind),
			slog.String("detail", f.Detail),
		)
	}
	logger.Info("completed catalog integrity scan",
		slog.Int("findings", len(findings)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *CatalogIntegrityJob) scanOrphanedRolePermissions(ctx context.Context, limit int) ([]integrityFinding, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT rp.role_id, rp.permission_id
		FROM role_permissions rp
		LEFT JOIN roles r ON r.id = rp.role_id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE r.id IS NULL OR p.id IS NULL
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []integrityFinding
	for rows.Next() {
		var roleID, permissionID int64
		if err := rows.Scan(&roleID, &permissionID); err != nil {
			return nil, err
		}
		findings = append(findings, integrityFinding{
			Kind:   "orphaned_role_permission",
			Detail: "role_id=" + strconv.FormatInt(roleID, 10) + " permission_id=" + strconv.FormatInt(permissionID, 10),
		})
	}
	return findings, rows.Err()
}

func (j *CatalogIntegrityJob) scanAssignmentsToInactiveCompanies(ctx context.Context, limit int) ([]integrityFinding, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT ur.user_id, ur.company_id
		FROM user_roles ur
		JOIN companies c ON c.id = ur.company_id
		WHERE ur.is_active = TRUE AND c.is_active = FALSE
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []integrityFinding
	for rows.Next() {
		var userID int64
		var companyID string
		if err := rows.Scan(&userID, &companyID); err != nil {
			return nil, err
		}
		findings = append(findings, integrityFinding{
			Kind:   "assignment_inactive_company",
			Detail: "user_id=" + strconv.FormatInt(userID, 10) + " company_id=" + companyID,
		})
	}
	return findings, rows.Err()
}

func (j *CatalogIntegrityJob) scanAssignmentsToInactiveProjects(ctx context.Context, limit int) ([]integrityFinding, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT ur.user_id, ur.project_id
		FROM user_roles ur
		JOIN projects p ON p.id = ur.project_id
		WHERE ur.is_active = TRUE AND p.is_active = FALSE
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []integrityFinding
	for rows.Next() {
		var userID int64
		var projectID string
		if err := rows.Scan(&userID, &projectID); err != nil {
			return nil, err
		}
		findings = append(findings, integrityFinding{
			Kind:   "assignment_inactive_project",
			Detail: "user_id=" + strconv.FormatInt(userID, 10) + " project_id=" + projectID,
		})
	}
	return findings, rows.Err()
}

func (j *CatalogIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskCatalogIntegrity))
}

func (j *CatalogIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

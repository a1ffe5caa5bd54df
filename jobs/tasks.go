package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogIntegrity is the task type for the authorization catalog scan.
	TaskCatalogIntegrity = "rbac:catalog_integrity"
)

// CatalogIntegrityPayload tunes the catalog integrity scan.
type CatalogIntegrityPayload struct {
	// MaxFindings caps how many rows each scan reports before truncating.
	MaxFindings int `json:"max_findings"`
}

// NewCatalogIntegrityTask constructs an Asynq task.
func NewCatalogIntegrityTask(payload CatalogIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogIntegrity, data), nil
}

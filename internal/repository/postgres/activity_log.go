package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

type activityLogRepository struct{}

func NewActivityLogRepository() repository.ActivityLogRepository {
	return &activityLogRepository{}
}

func (r *activityLogRepository) Create(ctx context.Context, q repository.DBTX, a *domain.ActivityLog) error {
	var metadata []byte
	if len(a.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(a.Metadata); err != nil {
			return fmt.Errorf("failed to encode activity metadata: %w", err)
		}
	}

	query := `INSERT INTO activity_logs (tenant_id, actor_id, entity_type, entity_id, action, description, metadata)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_on`
	err := q.QueryRowContext(ctx, query, a.TenantID, a.ActorID, a.EntityType, a.EntityID, a.Action, a.Description, metadata).
		Scan(&a.ID, &a.CreatedOn)
	if err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

func (r *activityLogRepository) ListByEntity(ctx context.Context, q repository.DBTX, tenantID int32, entityType string, entityID int32) ([]domain.ActivityLog, error) {
	query := `SELECT id, tenant_id, actor_id, entity_type, entity_id, action, description, metadata, created_on
	          FROM activity_logs WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 ORDER BY created_on, id`
	rows, err := q.QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ActivityLog
	for rows.Next() {
		var a domain.ActivityLog
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ActorID, &a.EntityType, &a.EntityID, &a.Action, &a.Description, &metadata, &a.CreatedOn); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode activity metadata: %w", err)
			}
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Log records an audit entry for a successful mutation. Fire-and-forget:
// a failed audit write is logged and swallowed, it never rolls back the
// mutation it describes.
func (s *Service) Log(ctx context.Context, branchID, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, meta interface{}) {
	var raw json.RawMessage
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to marshal audit metadata")
		} else {
			raw = b
		}
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		BranchID:   branchID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Meta:       raw,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, branchID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, branchID, limit)
}

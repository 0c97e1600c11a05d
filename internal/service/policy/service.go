package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

// Service resolves the per-branch precondition policy for scheduling.
// Unset branches fall back to the maximally strict default (all BLOCK).
type Service struct {
	repo  repository.PolicyRepository
	cache *cache.Cache
}

type Config struct {
	CacheDuration   time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheDuration:   5 * time.Minute,
		CleanupInterval: 30 * time.Minute,
	}
}

func NewService(repo repository.PolicyRepository, cfg Config) *Service {
	if cfg.CacheDuration <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		repo:  repo,
		cache: cache.New(cfg.CacheDuration, cfg.CleanupInterval),
	}
}

// GetPolicy returns the effective precondition policy for a branch.
// Unknown gate modes in stored rows are rejected here, at the boundary,
// so scheduling logic only ever sees the closed BLOCK/WARN/SKIP set.
func (s *Service) GetPolicy(ctx context.Context, branchID uuid.UUID) (model.PreconditionPolicy, error) {
	key := branchID.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(model.PreconditionPolicy), nil
	}

	row, err := s.repo.GetBranchPolicy(ctx, branchID)
	if err != nil {
		return model.PreconditionPolicy{}, fmt.Errorf("failed to load branch policy: %w", err)
	}

	policy := model.DefaultPreconditionPolicy()
	if row != nil {
		consent, err := model.ParseGate(row.ConsentGate)
		if err != nil {
			return model.PreconditionPolicy{}, errors.InvalidGateMode(err.Error())
		}
		anesthesia, err := model.ParseGate(row.AnesthesiaGate)
		if err != nil {
			return model.PreconditionPolicy{}, errors.InvalidGateMode(err.Error())
		}
		checklist, err := model.ParseGate(row.ChecklistGate)
		if err != nil {
			return model.PreconditionPolicy{}, errors.InvalidGateMode(err.Error())
		}
		policy = model.PreconditionPolicy{
			Consent:    consent,
			Anesthesia: anesthesia,
			Checklist:  checklist,
		}
	}

	s.cache.Set(key, policy, cache.DefaultExpiration)
	return policy, nil
}

// SetPolicy stores gate modes for a branch and drops the cached entry.
func (s *Service) SetPolicy(ctx context.Context, branchID uuid.UUID, policy model.PreconditionPolicy) error {
	for _, g := range []model.Gate{policy.Consent, policy.Anesthesia, policy.Checklist} {
		if _, err := model.ParseGate(string(g)); err != nil {
			return errors.InvalidGateMode(err.Error())
		}
	}

	row := &model.BranchPolicy{
		BranchID:       branchID,
		ConsentGate:    string(policy.Consent),
		AnesthesiaGate: string(policy.Anesthesia),
		ChecklistGate:  string(policy.Checklist),
	}
	if err := s.repo.UpsertBranchPolicy(ctx, row); err != nil {
		return fmt.Errorf("failed to store branch policy: %w", err)
	}

	s.cache.Delete(branchID.String())
	return nil
}

package location

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/codes"
	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	"github.com/jwalitptl/hospital-core/internal/service/audit"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/metrics"
)

// parentKinds maps each location kind to its required parent kind.
// Campuses are roots; areas may hang off any non-area node.
var parentKinds = map[model.LocationKind]model.LocationKind{
	model.LocationKindBuilding: model.LocationKindCampus,
	model.LocationKindFloor:    model.LocationKindBuilding,
	model.LocationKindZone:     model.LocationKindFloor,
}

type CreateNodeInput struct {
	BranchID      uuid.UUID
	Kind          model.LocationKind
	ParentID      *uuid.UUID
	Code          string
	Name          string
	IsActive      bool
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	ActorID       uuid.UUID
}

type ReviseNodeInput struct {
	Code          *string
	Name          *string
	IsActive      *bool
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	ActorID       uuid.UUID
}

type Service struct {
	repo    repository.LocationRepository
	auditor *audit.Service
	metrics *metrics.Metrics
}

func NewService(repo repository.LocationRepository, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{repo: repo, auditor: auditor, metrics: m}
}

// getNode fetches a node and hides it when it belongs to another branch;
// out-of-scope nodes read as not found.
func (s *Service) getNode(ctx context.Context, branchID, nodeID uuid.UUID) (*model.LocationNode, error) {
	node, err := s.repo.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.BranchID != branchID {
		return nil, errors.NotFound("location", nil)
	}
	return node, nil
}

// CreateNode creates a location node and its first effective-dated
// revision. The parent's code is resolved as of the new revision's
// effectiveFrom, not as of now: a node created retroactively must
// validate against what its parent was called back then.
func (s *Service) CreateNode(ctx context.Context, in CreateNodeInput) (*model.LocationNode, *model.LocationNodeRevision, error) {
	if !in.Kind.Valid() {
		return nil, nil, errors.InvalidCode(fmt.Sprintf("unknown location kind %q", in.Kind))
	}

	effectiveFrom := in.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now()
	}
	if in.EffectiveTo != nil && !in.EffectiveTo.After(effectiveFrom) {
		return nil, nil, errors.InvalidEffectiveDate("effective_to must be after effective_from")
	}

	parentCode := ""
	if in.ParentID != nil {
		parent, err := s.repo.GetNode(ctx, *in.ParentID)
		if err != nil {
			return nil, nil, err
		}
		if parent.BranchID != in.BranchID {
			return nil, nil, errors.InvalidParentScope("parent location belongs to a different branch")
		}
		if want, ok := parentKinds[in.Kind]; ok && parent.Kind != want {
			return nil, nil, errors.InvalidParentScope(fmt.Sprintf("%s nodes require a %s parent, got %s", in.Kind, want, parent.Kind))
		}
		// Areas accept any parent kind except another area.
		if in.Kind == model.LocationKindArea && parent.Kind == model.LocationKindArea {
			return nil, nil, errors.InvalidParentScope("area nodes cannot be nested under another area")
		}
		parentCode, err = s.CurrentCodeAt(ctx, in.BranchID, *in.ParentID, effectiveFrom)
		if err != nil {
			return nil, nil, err
		}
	} else if _, needsParent := parentKinds[in.Kind]; needsParent || in.Kind == model.LocationKindArea {
		return nil, nil, errors.InvalidParentScope(fmt.Sprintf("%s nodes require a parent", in.Kind))
	}

	code, err := codes.ValidateLocationCode(in.Kind, in.Code, parentCode)
	if err != nil {
		return nil, nil, err
	}

	collision, err := s.repo.HasCodeOverlap(ctx, in.BranchID, code, effectiveFrom, in.EffectiveTo, uuid.Nil)
	if err != nil {
		return nil, nil, err
	}
	if collision {
		if s.metrics != nil {
			s.metrics.CodeCollisions.Inc()
		}
		return nil, nil, errors.CodeCollision(fmt.Sprintf("code %q is already held by another location for an overlapping period", code))
	}

	now := time.Now()
	node := &model.LocationNode{
		ID:        uuid.New(),
		BranchID:  in.BranchID,
		Kind:      in.Kind,
		ParentID:  in.ParentID,
		CreatedAt: now,
	}
	rev := &model.LocationNodeRevision{
		ID:              uuid.New(),
		NodeID:          node.ID,
		Code:            code,
		Name:            in.Name,
		IsActive:        in.IsActive,
		EffectiveFrom:   effectiveFrom,
		EffectiveTo:     in.EffectiveTo,
		CreatedByUserID: in.ActorID,
		CreatedAt:       now,
	}

	if err := s.repo.CreateNodeWithRevision(ctx, node, rev); err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.RevisionsCreated.Inc()
	}
	s.auditor.Log(ctx, in.BranchID, in.ActorID, model.AuditActionCreate, model.AuditEntityLocation, node.ID, rev)
	return node, rev, nil
}

// ReviseNode closes the node's open revision at the new effectiveFrom and
// inserts the successor. History is never mutated, only intervals are
// closed.
func (s *Service) ReviseNode(ctx context.Context, branchID, nodeID uuid.UUID, in ReviseNodeInput) (*model.LocationNodeRevision, error) {
	node, err := s.getNode(ctx, branchID, nodeID)
	if err != nil {
		return nil, err
	}

	open, err := s.repo.GetOpenRevision(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	effectiveFrom := time.Now()
	if in.EffectiveFrom != nil {
		effectiveFrom = *in.EffectiveFrom
	}
	// Inserting history at or before the open revision's start would
	// require splitting closed intervals; rejected outright.
	if !effectiveFrom.After(open.EffectiveFrom) {
		return nil, errors.InvalidEffectiveDate("effective_from must be after the current revision's effective_from")
	}
	if in.EffectiveTo != nil && !in.EffectiveTo.After(effectiveFrom) {
		return nil, errors.InvalidEffectiveDate("effective_to must be after effective_from")
	}

	code := open.Code
	if in.Code != nil {
		parentCode := ""
		if node.ParentID != nil {
			parentCode, err = s.CurrentCodeAt(ctx, node.BranchID, *node.ParentID, effectiveFrom)
			if err != nil {
				return nil, err
			}
		}
		code, err = codes.ValidateLocationCode(node.Kind, *in.Code, parentCode)
		if err != nil {
			return nil, err
		}
	}

	if code != open.Code {
		collision, err := s.repo.HasCodeOverlap(ctx, node.BranchID, code, effectiveFrom, in.EffectiveTo, nodeID)
		if err != nil {
			return nil, err
		}
		if collision {
			if s.metrics != nil {
				s.metrics.CodeCollisions.Inc()
			}
			return nil, errors.CodeCollision(fmt.Sprintf("code %q is already held by another location for an overlapping period", code))
		}
	}

	name := open.Name
	if in.Name != nil {
		name = *in.Name
	}
	isActive := open.IsActive
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	next := &model.LocationNodeRevision{
		ID:              uuid.New(),
		NodeID:          nodeID,
		Code:            code,
		Name:            name,
		IsActive:        isActive,
		EffectiveFrom:   effectiveFrom,
		EffectiveTo:     in.EffectiveTo,
		CreatedByUserID: in.ActorID,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.CloseAndInsertRevision(ctx, open.ID, effectiveFrom, next); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RevisionsCreated.Inc()
	}
	s.auditor.Log(ctx, node.BranchID, in.ActorID, model.AuditActionRevise, model.AuditEntityLocation, nodeID, next)
	return next, nil
}

// CurrentCodeAt answers "what was this node called at the given instant".
func (s *Service) CurrentCodeAt(ctx context.Context, branchID, nodeID uuid.UUID, at time.Time) (string, error) {
	if _, err := s.getNode(ctx, branchID, nodeID); err != nil {
		return "", err
	}
	rev, err := s.repo.GetRevisionAt(ctx, nodeID, at)
	if err != nil {
		return "", err
	}
	return rev.Code, nil
}

// GetRevisions returns a node's full revision history, oldest first.
func (s *Service) GetRevisions(ctx context.Context, branchID, nodeID uuid.UUID) ([]*model.LocationNodeRevision, error) {
	if _, err := s.getNode(ctx, branchID, nodeID); err != nil {
		return nil, err
	}
	return s.repo.ListRevisions(ctx, nodeID)
}

// TreeAt builds the branch's location forest as it was at the given
// instant. Nodes with no effective revision at that instant are absent.
func (s *Service) TreeAt(ctx context.Context, branchID uuid.UUID, at time.Time) ([]*model.LocationTreeNode, error) {
	rows, err := s.repo.ListEffectiveAt(ctx, branchID, at)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.LocationTreeNode, len(rows))
	for _, row := range rows {
		byID[row.NodeID] = &model.LocationTreeNode{
			ID:       row.NodeID,
			Kind:     row.Kind,
			Code:     row.Code,
			Name:     row.Name,
			IsActive: row.IsActive,
		}
	}

	var roots []*model.LocationTreeNode
	for _, row := range rows {
		node := byID[row.NodeID]
		if row.ParentID != nil {
			if parent, ok := byID[*row.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortTree(roots)
	return roots, nil
}

func sortTree(nodes []*model.LocationTreeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	for _, n := range nodes {
		sortTree(n.Children)
	}
}

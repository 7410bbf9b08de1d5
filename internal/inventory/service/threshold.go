package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Snapshot recomputes stock stability for every (blood group, blood
// component) pair. Pairs seen for the first time are created seeded with the
// observed counts as the stability baseline; existing pairs get their live
// counts and is_stable re-derived.
//
// Thresholds are recomputed on read rather than maintained incrementally:
// unit status changes happen at many call sites, and a single recompute here
// eliminates drift at a small per-query cost.
func (s *Service) Snapshot(ctx context.Context) ([]*models.InventoryThreshold, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSnapshot(start)
		}
	}()

	groups, err := s.reference.ListGroups(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood groups")
	}
	components, err := s.reference.ListComponents(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood components")
	}
	counts, err := s.units.CountAvailableByPair(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count available units")
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	out := make([]*models.InventoryThreshold, 0, len(groups)*len(components))

	for _, g := range groups {
		for _, c := range components {
			pair := models.Pair{GroupID: g.ID, ComponentID: c.ID}
			pc := counts[pair]

			threshold, err := s.thresholds.FindByPair(ctx, pair)
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				threshold = &models.InventoryThreshold{
					ID:              id.InventoryThresholdID(uuid.New()),
					GroupID:         g.ID,
					ComponentID:     c.ID,
					StableUnitCount: pc.UnitCount,
					UnitCount:       pc.UnitCount,
					TotalVolumeML:   pc.TotalVolumeML,
					IsStable:        true,
					UpdatedBy:       actor,
					CreatedAt:       now,
					UpdatedAt:       now,
				}
				if err := s.thresholds.Create(ctx, threshold); err != nil && !errors.Is(err, sentinel.ErrConflict) {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create inventory threshold")
				}
			case err != nil:
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inventory threshold")
			default:
				threshold.Recompute(pc.UnitCount, pc.TotalVolumeML, actor, now)
				if err := s.thresholds.Update(ctx, threshold); err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update inventory threshold")
				}
			}
			out = append(out, threshold)
		}
	}
	return out, nil
}

// UpdateThreshold reconfigures the stable-unit count for one pair and
// re-derives stability against live counts in the same write.
func (s *Service) UpdateThreshold(ctx context.Context, thresholdID id.InventoryThresholdID, stableUnitCount int, actor id.UserID) (*models.InventoryThreshold, error) {
	if stableUnitCount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "threshold cannot be negative")
	}

	threshold, err := s.thresholds.FindByID(ctx, thresholdID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "inventory threshold not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inventory threshold")
	}

	counts, err := s.units.CountAvailableByPair(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count available units")
	}
	pc := counts[models.Pair{GroupID: threshold.GroupID, ComponentID: threshold.ComponentID}]

	now := requestcontext.Now(ctx)
	threshold.StableUnitCount = stableUnitCount
	threshold.Recompute(pc.UnitCount, pc.TotalVolumeML, actor, now)
	if err := s.thresholds.Update(ctx, threshold); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update inventory threshold")
	}

	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		ActorID:   actor,
		SubjectID: thresholdID.String(),
		Action:    string(audit.EventThresholdUpdated),
	})
	return threshold, nil
}

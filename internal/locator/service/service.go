// Package service implements the compatible-donor locator: given a recipient
// blood type and a location, find eligible donors whose blood can serve that
// recipient within a search radius, and appeal to them.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"bloodlink/internal/bloodtype"
	donation "bloodlink/internal/donation/models"
	"bloodlink/internal/locator/index"
	"bloodlink/internal/locator/metrics"
	"bloodlink/internal/notify"
	"bloodlink/internal/reference"
	usermodels "bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	audit "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/requestcontext"
)

const (
	// DefaultRadiusKM applies when the caller does not narrow the search.
	DefaultRadiusKM = 25.0
	// MaxRadiusKM bounds how wide one search may fan out.
	MaxRadiusKM = 500.0

	// notifyTimeout bounds the background appeal fan-out.
	notifyTimeout = 30 * time.Second
	// notifyConcurrency bounds parallel dispatches within one search.
	notifyConcurrency = 8
)

// DonorDirectory lists candidate donors by blood group.
type DonorDirectory interface {
	ListActiveByGroups(ctx context.Context, groupIDs []id.BloodGroupID) ([]*usermodels.User, error)
}

// ReferenceStore resolves blood types to blood groups.
type ReferenceStore interface {
	GroupByType(ctx context.Context, bloodType id.BloodType) (*reference.BloodGroup, error)
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs proximity searches over the donor directory.
type Service struct {
	donors     DonorDirectory
	reference  ReferenceStore
	geo        index.Index
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      AuditPublisher
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithGeoIndex narrows candidates through a location index before the
// per-donor eligibility filters run. Without one, distances are computed
// in-process from profile coordinates.
func WithGeoIndex(idx index.Index) Option {
	return func(s *Service) { s.geo = idx }
}

// WithDispatcher enables the donor appeal fan-out after a successful search.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

func New(donors DonorDirectory, ref ReferenceStore, opts ...Option) (*Service, error) {
	if donors == nil {
		return nil, fmt.Errorf("donor directory is required")
	}
	if ref == nil {
		return nil, fmt.Errorf("reference store is required")
	}

	svc := &Service{
		donors:    donors,
		reference: ref,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SearchInput describes one locator query.
type SearchInput struct {
	RecipientType id.BloodType
	Center        usermodels.Geo
	RadiusKM      float64
}

// Match is one donor who can serve the recipient, with the great-circle
// distance from the search center.
type Match struct {
	Donor      *usermodels.User `json:"donor"`
	DistanceKM float64          `json:"distance_km"`
}

// Search finds donors whose blood type can serve the recipient, filtered to
// active accounts above the donation weight floor with a known location
// inside the radius, ordered nearest first.
//
// A recipient type outside the compatibility table is an input error. A
// well-formed search that matches nobody fails with a no-compatible-donors
// error so callers can distinguish "nobody nearby" from an empty page.
func (s *Service) Search(ctx context.Context, in SearchInput, actor id.UserID) ([]Match, error) {
	if !in.RecipientType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown recipient blood type")
	}
	if !in.Center.IsSet() {
		return nil, dErrors.New(dErrors.CodeValidation, "search center is required")
	}
	radius := in.RadiusKM
	if radius <= 0 {
		radius = DefaultRadiusKM
	}
	if radius > MaxRadiusKM {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("radius exceeds the %.0f km maximum", MaxRadiusKM))
	}
	if s.metrics != nil {
		s.metrics.Searches.Inc()
	}

	groupIDs, err := s.compatibleGroups(ctx, in.RecipientType)
	if err != nil {
		return nil, err
	}
	candidates, err := s.donors.ListActiveByGroups(ctx, groupIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidate donors")
	}

	var nearby map[id.UserID]float64
	if s.geo != nil {
		nearby, err = s.geo.Within(ctx, in.Center, radius)
		if err != nil {
			// The index is an accelerator; fall back to profile coordinates.
			s.logger.WarnContext(ctx, "geo index query failed, falling back", "error", err)
			nearby = nil
		}
	}

	matches := make([]Match, 0, len(candidates))
	for _, donor := range candidates {
		if !donor.CanDonate(donation.MinDonationWeightKG) || !donor.Location.IsSet() {
			continue
		}
		var distance float64
		if nearby != nil {
			d, ok := nearby[donor.ID]
			if !ok {
				continue
			}
			distance = d
		} else {
			distance = index.HaversineKM(in.Center, donor.Location)
			if distance > radius {
				continue
			}
		}
		matches = append(matches, Match{Donor: donor, DistanceKM: distance})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].DistanceKM < matches[j].DistanceKM })

	if s.metrics != nil {
		s.metrics.MatchesPerSearch.Observe(float64(len(matches)))
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: requestcontext.Now(ctx),
		ActorID:   actor,
		SubjectID: string(in.RecipientType),
		Action:    string(audit.EventDonorSearch),
		Reason:    fmt.Sprintf("%d matches within %.0f km", len(matches), radius),
	})

	if len(matches) == 0 {
		if s.metrics != nil {
			s.metrics.EmptySearches.Inc()
		}
		return nil, dErrors.New(dErrors.CodeNoCompatibleDonors,
			"no compatible donors within the search radius")
	}

	s.appealToDonors(ctx, in.RecipientType, matches)
	return matches, nil
}

// compatibleGroups resolves the compatibility table for the recipient into
// concrete blood-group IDs.
func (s *Service) compatibleGroups(ctx context.Context, recipient id.BloodType) ([]id.BloodGroupID, error) {
	donorTypes := bloodtype.CompatibleDonors(recipient)
	groupIDs := make([]id.BloodGroupID, 0, len(donorTypes))
	for _, t := range donorTypes {
		group, err := s.reference.GroupByType(ctx, t)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood group")
		}
		groupIDs = append(groupIDs, group.ID)
	}
	return groupIDs, nil
}

// appealToDonors notifies each matched donor in the background. The search
// response never waits on delivery.
func (s *Service) appealToDonors(ctx context.Context, recipient id.BloodType, matches []Match) {
	if s.dispatcher == nil {
		return
	}

	// Detach from the request so an early client disconnect does not cancel
	// the appeals mid-flight.
	bg := context.WithoutCancel(ctx)
	go func() {
		bg, cancel := context.WithTimeout(bg, notifyTimeout)
		defer cancel()

		g, bg := errgroup.WithContext(bg)
		g.SetLimit(notifyConcurrency)
		for _, m := range matches {
			g.Go(func() error {
				msg := notify.Message{
					UserID: m.Donor.ID,
					Title:  "Blood donation appeal",
					Body:   fmt.Sprintf("A patient with blood type %s needs a donation. You are %.1f km away.", recipient, m.DistanceKM),
				}
				if err := s.dispatcher.Send(bg, msg); err != nil {
					s.logger.Warn("donor appeal failed", "user_id", m.Donor.ID, "error", err)
					return nil
				}
				if s.metrics != nil {
					s.metrics.NotificationsSent.Inc()
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

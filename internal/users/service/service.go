// Package service implements account registration, credential verification
// and donor profile upkeep.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bloodlink/internal/reference"
	"bloodlink/internal/users/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// tokenTTL bounds how long an issued access token verifies.
const tokenTTL = 24 * time.Hour

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	ListActiveByGroups(ctx context.Context, groupIDs []id.BloodGroupID) ([]*models.User, error)
}

// ReferenceStore resolves blood-group reference data.
type ReferenceStore interface {
	GroupByID(ctx context.Context, groupID id.BloodGroupID) (*reference.BloodGroup, error)
	GroupByType(ctx context.Context, bloodType id.BloodType) (*reference.BloodGroup, error)
}

// Service owns account lifecycle and token issuance. The middleware verifies
// with the same signing key this side signs with.
type Service struct {
	users      UserStore
	reference  ReferenceStore
	signingKey []byte
	logger     *slog.Logger
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(users UserStore, ref ReferenceStore, signingKey string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if ref == nil {
		return nil, fmt.Errorf("reference store is required")
	}
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}

	svc := &Service{
		users:      users,
		reference:  ref,
		signingKey: []byte(signingKey),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterInput carries a signup submission.
type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	Role      requestcontext.Role
	BloodType id.BloodType
	WeightKG  float64
	Location  models.Geo
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if len(in.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	group, err := s.reference.GroupByType(ctx, in.BloodType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown blood type")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood group")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	role := in.Role
	if role == "" {
		role = requestcontext.RoleDonor
	}

	now := requestcontext.Now(ctx)
	u := &models.User{
		ID:           id.UserID(uuid.New()),
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         string(role),
		GroupID:      group.ID,
		WeightKG:     in.WeightKG,
		Location:     in.Location,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return u, nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !u.Active {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID.String(),
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, u, nil
}

// GetUser returns an account by ID.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// ProfileUpdate carries the self-service profile fields.
type ProfileUpdate struct {
	FullName *string
	WeightKG *float64
	Location *models.Geo
	Active   *bool
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, upd ProfileUpdate) (*models.User, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.WeightKG != nil {
		if *upd.WeightKG <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "weight must be positive")
		}
		u.WeightKG = *upd.WeightKG
	}
	if upd.Location != nil {
		u.Location = *upd.Location
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}

	u.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return u, nil
}

// IncrementDonationCount bumps a donor's lifetime donation counter. Called by
// the donation side on the first approval of a process.
func (s *Service) IncrementDonationCount(ctx context.Context, donorID id.UserID) error {
	u, err := s.GetUser(ctx, donorID)
	if err != nil {
		return err
	}
	u.DonationCount++
	u.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, u); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return nil
}

// ListActiveByGroups returns active accounts in the given blood groups.
// Proximity search applies its own eligibility and distance filters on top.
func (s *Service) ListActiveByGroups(ctx context.Context, groupIDs []id.BloodGroupID) ([]*models.User, error) {
	users, err := s.users.ListActiveByGroups(ctx, groupIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

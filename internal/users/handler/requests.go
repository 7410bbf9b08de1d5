package handler

import (
	"bloodlink/internal/users/models"
	"bloodlink/internal/users/service"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/requestcontext"
)

type registerRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	BloodType string  `json:"blood_type"`
	WeightKG  float64 `json:"weight_kg"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	parsed service.RegisterInput
}

func (r *registerRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	bloodType, err := id.ParseBloodType(r.BloodType)
	if err != nil {
		return err
	}
	switch r.Role {
	case "", string(requestcontext.RoleDonor), string(requestcontext.RoleStaff):
	default:
		// Admin accounts are provisioned out of band.
		return dErrors.New(dErrors.CodeValidation, "unknown role")
	}

	r.parsed = service.RegisterInput{
		Email:     r.Email,
		Password:  r.Password,
		FullName:  r.FullName,
		Role:      requestcontext.Role(r.Role),
		BloodType: bloodType,
		WeightKG:  r.WeightKG,
		Location:  models.Geo{Latitude: r.Latitude, Longitude: r.Longitude},
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

type updateProfileRequest struct {
	FullName  *string  `json:"full_name"`
	WeightKG  *float64 `json:"weight_kg"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Active    *bool    `json:"active"`
}

func (r *updateProfileRequest) Validate() error {
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return dErrors.New(dErrors.CodeValidation, "latitude and longitude must be set together")
	}
	return nil
}

func (r *updateProfileRequest) toUpdate() service.ProfileUpdate {
	upd := service.ProfileUpdate{
		FullName: r.FullName,
		WeightKG: r.WeightKG,
		Active:   r.Active,
	}
	if r.Latitude != nil {
		upd.Location = &models.Geo{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return upd
}

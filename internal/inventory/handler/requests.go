package handler

import (
	"bloodlink/internal/inventory/models"
	"bloodlink/internal/inventory/service"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

type collectionItem struct {
	UnitID       string  `json:"unit_id"`
	VolumeML     float64 `json:"volume_ml"`
	Status       string  `json:"status"`
	BloodGroupID string  `json:"blood_group_id,omitempty"`
	StorageTemp  float64 `json:"storage_temp_c"`
	Note         string  `json:"note,omitempty"`
}

type recordCollectionRequest struct {
	Units []collectionItem `json:"units"`

	updates []service.CollectionUpdate
}

func (r *recordCollectionRequest) Validate() error {
	if len(r.Units) == 0 {
		return dErrors.New(dErrors.CodeValidation, "units cannot be empty")
	}

	r.updates = make([]service.CollectionUpdate, 0, len(r.Units))
	for _, item := range r.Units {
		unitID, err := id.ParseBloodUnitID(item.UnitID)
		if err != nil {
			return err
		}
		status, err := models.ParseUnitStatus(item.Status)
		if err != nil {
			return err
		}
		upd := service.CollectionUpdate{
			UnitID:      unitID,
			VolumeML:    item.VolumeML,
			Status:      status,
			StorageTemp: item.StorageTemp,
			Note:        item.Note,
		}
		if item.BloodGroupID != "" {
			groupID, err := id.ParseBloodGroupID(item.BloodGroupID)
			if err != nil {
				return err
			}
			upd.GroupID = groupID
		}
		r.updates = append(r.updates, upd)
	}
	return nil
}

type markUsedRequest struct {
	RequestProcessID string `json:"request_process_id"`

	requestID id.RequestProcessID
}

func (r *markUsedRequest) Validate() error {
	requestID, err := id.ParseRequestProcessID(r.RequestProcessID)
	if err != nil {
		return err
	}
	r.requestID = requestID
	return nil
}

type updateThresholdRequest struct {
	StableUnitCount *int `json:"stable_unit_count"`
}

func (r *updateThresholdRequest) Validate() error {
	if r.StableUnitCount == nil {
		return dErrors.New(dErrors.CodeValidation, "stable_unit_count is required")
	}
	if *r.StableUnitCount < 0 {
		return dErrors.New(dErrors.CodeValidation, "stable_unit_count cannot be negative")
	}
	return nil
}

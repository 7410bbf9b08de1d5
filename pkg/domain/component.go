package domain

import dErrors "bloodlink/pkg/domain-errors"

// ComponentName identifies a blood component. Each component carries a fixed
// shelf-life policy applied when a unit is collected; see inventory service.
type ComponentName string

const (
	ComponentRedCells   ComponentName = "red_cells"
	ComponentPlatelets  ComponentName = "platelets"
	ComponentPlasma     ComponentName = "plasma"
	ComponentWholeBlood ComponentName = "whole_blood"
	ComponentWhiteCells ComponentName = "white_cells"
)

var validComponents = map[ComponentName]bool{
	ComponentRedCells:   true,
	ComponentPlatelets:  true,
	ComponentPlasma:     true,
	ComponentWholeBlood: true,
	ComponentWhiteCells: true,
}

// AllComponents lists the supported components.
func AllComponents() []ComponentName {
	return []ComponentName{
		ComponentRedCells, ComponentPlatelets, ComponentPlasma,
		ComponentWholeBlood, ComponentWhiteCells,
	}
}

// ParseComponentName constructs a ComponentName from external input.
func ParseComponentName(s string) (ComponentName, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "component cannot be empty")
	}
	c := ComponentName(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown blood component")
	}
	return c, nil
}

func (c ComponentName) IsValid() bool {
	return validComponents[c]
}

func (c ComponentName) String() string {
	return string(c)
}

// DonationType is the kind of donation a donor declares at registration time.
// It determines which blood components the collection will yield.
type DonationType string

const (
	DonationWholeBlood DonationType = "whole_blood"
	DonationPlasma     DonationType = "plasma"
	DonationPlatelets  DonationType = "platelets"
	DonationRedCells   DonationType = "red_cells"
	DonationWhiteCells DonationType = "white_cells"
)

// donationComponents maps a declared donation type to the components a
// collection of that type yields.
var donationComponents = map[DonationType][]ComponentName{
	DonationWholeBlood: {ComponentWholeBlood},
	DonationPlasma:     {ComponentPlasma},
	DonationPlatelets:  {ComponentPlatelets},
	DonationRedCells:   {ComponentRedCells},
	DonationWhiteCells: {ComponentWhiteCells},
}

// ParseDonationType constructs a DonationType from external input.
func ParseDonationType(s string) (DonationType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "donation type cannot be empty")
	}
	d := DonationType(s)
	if _, ok := donationComponents[d]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown donation type")
	}
	return d, nil
}

// Components resolves the declared donation type to the blood components the
// collection yields. Unknown types yield nil; parse first at trust boundaries.
func (d DonationType) Components() []ComponentName {
	return donationComponents[d]
}

func (d DonationType) String() string {
	return string(d)
}

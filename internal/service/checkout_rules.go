package service

import (
	"fmt"

	"keyrental-backend/internal/domain"
)

// The checkout rules run in a fixed order and the first failure wins. Each
// stage only sees the data the engine has loaded by the time it runs, so a
// request refused early never touches the later queries.

func checkStudent(studentID string, exists, member bool, orgID int32) error {
	if !exists {
		return fmt.Errorf("%w: student %s was not found", domain.ErrUnknownStudent, studentID)
	}
	if !member {
		return fmt.Errorf("%w: student %s is not a member of organization %d", domain.ErrUnknownStudent, studentID, orgID)
	}
	return nil
}

func checkStorageCount(req domain.CheckoutRequest) error {
	if len(req.StorageUnitIDs) > 1 {
		return domain.ErrTooManyStorageUnits
	}
	return nil
}

// checkRentalType refuses a request whose rental type was not recognised.
// The holding rules below cannot classify it.
func checkRentalType(a domain.Allocation) error {
	if a == nil {
		return fmt.Errorf("%w: unknown rental type", domain.ErrUnknownResource)
	}
	return nil
}

// checkScopes applies the per-student holding rules against the student's
// active transactions across every organization.
func checkScopes(kind domain.RentalKind, active []domain.ActiveRental) error {
	var holdsAny, holdsPrint, holdsRoomOrPractice, holdsStorageOnly bool
	for _, a := range active {
		holdsAny = true
		switch a.Kind {
		case domain.RentalKindPrintRoom:
			holdsPrint = true
		case domain.RentalKindRoom, domain.RentalKindPractice:
			holdsRoomOrPractice = true
		case domain.RentalKindStorageOnly:
			holdsStorageOnly = true
		}
	}

	if kind == domain.RentalKindPrintRoom && holdsAny {
		return fmt.Errorf("%w: return every other rental before borrowing the print room", domain.ErrPrintRoomExclusive)
	}
	if kind != domain.RentalKindPrintRoom && holdsPrint {
		return fmt.Errorf("%w: return the print room before borrowing anything else", domain.ErrPrintRoomExclusive)
	}
	if (kind == domain.RentalKindRoom || kind == domain.RentalKindPractice) && holdsRoomOrPractice {
		return domain.ErrRoomOrPracticeAlreadyHeld
	}
	if kind == domain.RentalKindStorageOnly && holdsStorageOnly {
		return domain.ErrStorageOnlyAlreadyHeld
	}
	return nil
}

func checkAvailability(a domain.Allocation, allocationHeld, storageHeld bool, storageUnitID int32) error {
	if allocationHeld {
		return fmt.Errorf("%w: %s", domain.ErrResourceInUse, describeAllocation(a))
	}
	if storageHeld {
		return fmt.Errorf("%w: storage unit %d", domain.ErrStorageUnitInUse, storageUnitID)
	}
	return nil
}

// checkReferences validates that the request names a resource for its kind.
// It needs no lookups and runs first within the entitlement stage.
func checkReferences(req domain.CheckoutRequest) error {
	switch a := req.Allocation.(type) {
	case domain.RoomAllocation:
		if a.RoomNumber == "" {
			return fmt.Errorf("%w: a room number is required", domain.ErrUnknownResource)
		}
	case domain.PracticeAllocation:
		if a.PracticeRoomID <= 0 {
			return fmt.Errorf("%w: a practice room is required", domain.ErrUnknownResource)
		}
	case domain.PrintRoomAllocation:
		if a.PrintRoomID <= 0 {
			return fmt.Errorf("%w: a print room is required", domain.ErrUnknownResource)
		}
	case domain.StorageOnlyAllocation:
		if _, ok := req.StorageUnitID(); !ok {
			return fmt.Errorf("%w: a storage unit is required", domain.ErrUnknownResource)
		}
	default:
		return fmt.Errorf("%w: unknown rental type", domain.ErrUnknownResource)
	}
	if id, ok := req.StorageUnitID(); ok && id <= 0 {
		return fmt.Errorf("%w: storage unit %d", domain.ErrUnknownResource, id)
	}
	return nil
}

// entitlement holds what the engine learned about the organization and the
// catalog for the entitlement stage.
type entitlement struct {
	org              *domain.Organization
	allocationExists bool
	storageExists    bool
}

func checkEntitlement(req domain.CheckoutRequest, e entitlement) error {
	switch a := req.Allocation.(type) {
	case domain.RoomAllocation:
		if e.org.RoomNumber == "" || e.org.RoomNumber != a.RoomNumber {
			return fmt.Errorf("%w: room %s is not assigned to %s", domain.ErrUnknownResource, a.RoomNumber, e.org.Name)
		}
	case domain.PracticeAllocation:
		if !e.allocationExists {
			return fmt.Errorf("%w: practice room %d", domain.ErrUnknownResource, a.PracticeRoomID)
		}
		if !e.org.CanUsePracticeRooms {
			return fmt.Errorf("%w: %s may not use practice rooms", domain.ErrUnknownResource, e.org.Name)
		}
	case domain.PrintRoomAllocation:
		if !e.allocationExists {
			return fmt.Errorf("%w: print room %d", domain.ErrUnknownResource, a.PrintRoomID)
		}
	}
	if id, ok := req.StorageUnitID(); ok {
		if !e.storageExists {
			return fmt.Errorf("%w: storage unit %d", domain.ErrUnknownResource, id)
		}
		if !e.org.PermitsStorageUnit(id) {
			return fmt.Errorf("%w: storage unit %d is not assigned to %s", domain.ErrUnknownResource, id, e.org.Name)
		}
	}
	return nil
}

func describeAllocation(a domain.Allocation) string {
	switch v := a.(type) {
	case domain.RoomAllocation:
		return "room " + v.RoomNumber
	case domain.PracticeAllocation:
		return fmt.Sprintf("practice room %d", v.PracticeRoomID)
	case domain.PrintRoomAllocation:
		return fmt.Sprintf("print room %d", v.PrintRoomID)
	}
	return "storage"
}

package domain

import "time"

type RentalKind string

const (
	RentalKindRoom        RentalKind = "room"
	RentalKindPractice    RentalKind = "practice"
	RentalKindPrintRoom   RentalKind = "print_room"
	RentalKindStorageOnly RentalKind = "storage_only"
)

// Scope is the per-student group within which at most one transaction may be active.
type Scope string

const (
	ScopeExclusive   Scope = "exclusive"
	ScopeStorageOnly Scope = "storage_only"
)

// Scope returns the reconciliation scope of the kind. Room, practice and print
// room share one scope; storage-only rentals have their own.
func (k RentalKind) Scope() Scope {
	if k == RentalKindStorageOnly {
		return ScopeStorageOnly
	}
	return ScopeExclusive
}

func (k RentalKind) Valid() bool {
	switch k {
	case RentalKindRoom, RentalKindPractice, RentalKindPrintRoom, RentalKindStorageOnly:
		return true
	}
	return false
}

type RentalStatus string

const (
	RentalStatusActive   RentalStatus = "active"
	RentalStatusReturned RentalStatus = "returned"
)

type ItemKind string

const (
	ItemKindRoom         ItemKind = "room"
	ItemKindPracticeRoom ItemKind = "practice_room"
	ItemKindPrintRoom    ItemKind = "print_room"
	ItemKindStorage      ItemKind = "storage"
)

// Allocation is the exclusivity resource a transaction holds. The set of
// implementations is closed: RoomAllocation, PracticeAllocation,
// PrintRoomAllocation and StorageOnlyAllocation.
type Allocation interface {
	Kind() RentalKind
	isAllocation()
}

type RoomAllocation struct {
	RoomNumber string `json:"room_number"`
}

type PracticeAllocation struct {
	PracticeRoomID int32 `json:"practice_room_id"`
}

type PrintRoomAllocation struct {
	PrintRoomID int32 `json:"print_room_id"`
}

type StorageOnlyAllocation struct{}

func (RoomAllocation) Kind() RentalKind        { return RentalKindRoom }
func (PracticeAllocation) Kind() RentalKind    { return RentalKindPractice }
func (PrintRoomAllocation) Kind() RentalKind   { return RentalKindPrintRoom }
func (StorageOnlyAllocation) Kind() RentalKind { return RentalKindStorageOnly }

func (RoomAllocation) isAllocation()        {}
func (PracticeAllocation) isAllocation()    {}
func (PrintRoomAllocation) isAllocation()   {}
func (StorageOnlyAllocation) isAllocation() {}

// ExclusiveItem returns the item row an allocation produces, or false for
// storage-only allocations which hold no exclusivity resource.
func ExclusiveItem(a Allocation) (ItemResource, bool) {
	switch v := a.(type) {
	case RoomAllocation:
		return ItemResource{Kind: ItemKindRoom, RoomNumber: v.RoomNumber}, true
	case PracticeAllocation:
		return ItemResource{Kind: ItemKindPracticeRoom, ID: v.PracticeRoomID}, true
	case PrintRoomAllocation:
		return ItemResource{Kind: ItemKindPrintRoom, ID: v.PrintRoomID}, true
	}
	return ItemResource{}, false
}

// CheckoutRequest is a fully parsed checkout command.
type CheckoutRequest struct {
	StudentID      string
	OrgID          int32
	Allocation     Allocation
	StorageUnitIDs []int32
}

// StorageUnitID returns the single requested storage unit, if any.
func (r CheckoutRequest) StorageUnitID() (int32, bool) {
	if len(r.StorageUnitIDs) == 0 {
		return 0, false
	}
	return r.StorageUnitIDs[0], true
}

// RentalTransaction is one checkout event in the ledger.
type RentalTransaction struct {
	ID               int64
	StudentID        string
	StudentName      string
	OrgID            int32
	OrgName          string
	Allocation       Allocation
	PracticeRoomName string
	StorageUnitID    *int32
	CheckedOutAt     time.Time
	ReturnedAt       *time.Time
	Status           RentalStatus
}

func (t *RentalTransaction) Active() bool { return t.Status == RentalStatusActive }

// ItemResource identifies the concrete resource behind a rental item. Rooms
// are keyed by RoomNumber, every other kind by its catalog ID.
type ItemResource struct {
	Kind       ItemKind
	RoomNumber string
	ID         int32
	Name       string
}

// RentalItem is one concrete resource held under a transaction.
type RentalItem struct {
	ID            int64
	TransactionID int64
	Resource      ItemResource
	CheckedOutAt  time.Time
	ReturnedAt    *time.Time
	Status        RentalStatus
}

// ActiveRental is the minimal view of an active transaction used by the
// checkout rules and the reconciliation planner.
type ActiveRental struct {
	ID        int64
	StudentID string
	Kind      RentalKind
}

// Usage lists every resource currently held by an active rental.
type Usage struct {
	Rooms           []string `json:"rooms"`
	PracticeRoomIDs []int32  `json:"practiceRoomIds"`
	PrintRoomIDs    []int32  `json:"printRoomIds"`
	StorageUnitIDs  []int32  `json:"storageUnitIds"`
}

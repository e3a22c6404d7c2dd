package domain

type Organization struct {
	ID                  int32   `json:"orgId"`
	Name                string  `json:"orgName"`
	RoomNumber          string  `json:"roomNumber,omitempty"` // empty when no club room is assigned
	CanUsePracticeRooms bool    `json:"canUsePracticeRooms"`
	StorageUnitIDs      []int32 `json:"storageIds"`
}

// PermitsStorageUnit reports whether the organization may check out the storage unit.
func (o *Organization) PermitsStorageUnit(id int32) bool {
	for _, sid := range o.StorageUnitIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// OrganizationMembers groups an organization with its members.
type OrganizationMembers struct {
	Organization
	Members []Member `json:"members"`
}

type Member struct {
	StudentID string         `json:"studentId"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      MembershipRole `json:"role"`
}

// OrganizationImportRecord is one typed row of a bulk organization import.
// ID is optional; zero means "assign one".
type OrganizationImportRecord struct {
	ID                  int32   `json:"orgId"`
	Name                string  `json:"orgName"`
	RoomNumber          string  `json:"roomNumber"`
	CanUsePracticeRooms bool    `json:"canUsePracticeRooms"`
	StorageUnitIDs      []int32 `json:"storageIds"`
}

type ImportResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

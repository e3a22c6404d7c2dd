package http

import (
	"time"

	"keyrental-backend/internal/domain"
)

type checkoutRequest struct {
	StudentID      string  `json:"studentId"`
	OrgID          int32   `json:"orgId"`
	RentalType     string  `json:"rentalType"`
	RoomNumber     string  `json:"roomNumber"`
	PracticeRoomID int32   `json:"practiceRoomId"`
	PrintRoomID    int32   `json:"printRoomId"`
	StorageIDs     []int32 `json:"storageIds"`
}

// toDomain builds the checkout command. An unrecognised rental type leaves
// the allocation nil and is refused by the engine.
func (r checkoutRequest) toDomain() domain.CheckoutRequest {
	req := domain.CheckoutRequest{
		StudentID:      r.StudentID,
		OrgID:          r.OrgID,
		StorageUnitIDs: r.StorageIDs,
	}
	switch domain.RentalKind(r.RentalType) {
	case domain.RentalKindRoom:
		req.Allocation = domain.RoomAllocation{RoomNumber: r.RoomNumber}
	case domain.RentalKindPractice:
		req.Allocation = domain.PracticeAllocation{PracticeRoomID: r.PracticeRoomID}
	case domain.RentalKindPrintRoom:
		req.Allocation = domain.PrintRoomAllocation{PrintRoomID: r.PrintRoomID}
	case domain.RentalKindStorageOnly:
		req.Allocation = domain.StorageOnlyAllocation{}
	}
	return req
}

type checkoutResponse struct {
	TransactionID int64 `json:"transactionId"`
}

type transactionResponse struct {
	ID               int64      `json:"id"`
	StudentID        string     `json:"studentId"`
	StudentName      string     `json:"studentName"`
	OrgID            int32      `json:"orgId"`
	OrgName          string     `json:"orgName"`
	RentalType       string     `json:"rentalType"`
	RoomNumber       string     `json:"roomNumber,omitempty"`
	PracticeRoomID   *int32     `json:"practiceRoomId,omitempty"`
	PracticeRoomName string     `json:"practiceRoomName,omitempty"`
	PrintRoomID      *int32     `json:"printRoomId,omitempty"`
	StorageUnitID    *int32     `json:"storageId,omitempty"`
	CheckedOutAt     time.Time  `json:"checkedOutAt"`
	ReturnedAt       *time.Time `json:"returnedAt,omitempty"`
	Status           string     `json:"status"`
}

func mapTransaction(t domain.RentalTransaction) transactionResponse {
	resp := transactionResponse{
		ID:               t.ID,
		StudentID:        t.StudentID,
		StudentName:      t.StudentName,
		OrgID:            t.OrgID,
		OrgName:          t.OrgName,
		PracticeRoomName: t.PracticeRoomName,
		StorageUnitID:    t.StorageUnitID,
		CheckedOutAt:     t.CheckedOutAt,
		ReturnedAt:       t.ReturnedAt,
		Status:           string(t.Status),
	}
	switch a := t.Allocation.(type) {
	case domain.RoomAllocation:
		resp.RoomNumber = a.RoomNumber
	case domain.PracticeAllocation:
		id := a.PracticeRoomID
		resp.PracticeRoomID = &id
	case domain.PrintRoomAllocation:
		id := a.PrintRoomID
		resp.PrintRoomID = &id
	}
	if t.Allocation != nil {
		resp.RentalType = string(t.Allocation.Kind())
	}
	return resp
}

func mapTransactions(ts []domain.RentalTransaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, mapTransaction(t))
	}
	return out
}

type itemResponse struct {
	ID            int64      `json:"id"`
	TransactionID int64      `json:"transactionId"`
	ItemType      string     `json:"itemType"`
	RoomNumber    string     `json:"roomNumber,omitempty"`
	ResourceID    int32      `json:"resourceId,omitempty"`
	Name          string     `json:"name"`
	CheckedOutAt  time.Time  `json:"checkedOutAt"`
	ReturnedAt    *time.Time `json:"returnedAt,omitempty"`
	Status        string     `json:"status"`
}

func mapItems(items []domain.RentalItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse{
			ID:            it.ID,
			TransactionID: it.TransactionID,
			ItemType:      string(it.Resource.Kind),
			RoomNumber:    it.Resource.RoomNumber,
			ResourceID:    it.Resource.ID,
			Name:          it.Resource.Name,
			CheckedOutAt:  it.CheckedOutAt,
			ReturnedAt:    it.ReturnedAt,
			Status:        string(it.Status),
		})
	}
	return out
}

type affiliationResponse struct {
	domain.Organization
	Role domain.MembershipRole `json:"role"`
}

type studentResponse struct {
	StudentID     string                `json:"studentId"`
	Name          string                `json:"name"`
	Email         string                `json:"email,omitempty"`
	Organizations []affiliationResponse `json:"organizations"`
}

// mapStudent folds the per-organization lookup rows into one record.
func mapStudent(rows []domain.StudentAffiliation) studentResponse {
	resp := studentResponse{Organizations: make([]affiliationResponse, 0, len(rows))}
	if len(rows) > 0 {
		resp.StudentID = rows[0].Student.ID
		resp.Name = rows[0].Student.Name
		resp.Email = rows[0].Student.Email
	}
	for _, row := range rows {
		resp.Organizations = append(resp.Organizations, affiliationResponse{Organization: row.Organization, Role: row.Role})
	}
	return resp
}

type organizationImportRequest struct {
	Organizations []domain.OrganizationImportRecord `json:"organizations"`
}

type studentImportRequest struct {
	ReplaceOrgMemberships bool                         `json:"replaceOrgMemberships"`
	OrgID                 int32                        `json:"orgId"`
	Students              []domain.StudentImportRecord `json:"students"`
}

type studentImportResponse struct {
	Imported int `json:"imported"`
}

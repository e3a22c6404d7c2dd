package domain

type Student struct {
	ID    string `json:"studentId"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type MembershipRole string

const (
	MembershipRoleMember MembershipRole = "member"
)

type Membership struct {
	StudentID string         `json:"studentId"`
	OrgID     int32          `json:"orgId"`
	Role      MembershipRole `json:"role"`
}

// StudentAffiliation is one row of a student lookup: the student joined with
// one organization they belong to.
type StudentAffiliation struct {
	Student      Student        `json:"student"`
	Role         MembershipRole `json:"role"`
	Organization Organization   `json:"organization"`
}

// StudentImportRecord is one typed row of a bulk student/membership import.
type StudentImportRecord struct {
	StudentID string         `json:"studentId"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	OrgID     int32          `json:"orgId"`
	Role      MembershipRole `json:"role"`
}

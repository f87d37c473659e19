package entity

type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated actor behind a connection or request.
// It is resolved once and passed explicitly; the zero value is anonymous.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.ID == ""
}

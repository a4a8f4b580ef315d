package user

import (
	"sort"
	"strings"

	"github.com/trezcool/schoolportal/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Staff
	RoleReceptionist = "staff:receptionist"

	// Teacher
	RoleTeacher      = "teacher:"
	RoleClassTeacher = "teacher:class"

	// Parent
	RoleParent = "parent:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	StaffRoles   = []string{RoleReceptionist}
	TeacherRoles = []string{RoleTeacher, RoleClassTeacher}
	ParentRoles  = []string{RoleParent}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()
)

func getAllRoles() []string {
	all := make([]string, 0, len(AdminRoles)+len(StaffRoles)+len(TeacherRoles)+len(ParentRoles)+len(StudentRoles))
	all = append(all, AdminRoles...)
	all = append(all, StaffRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, ParentRoles...)
	all = append(all, StudentRoles...)
	sort.Strings(all)
	return all
}

func IsRole(role string) bool {
	idx := sort.SearchStrings(AllRoles, role)
	return idx < len(AllRoles) && AllRoles[idx] == role
}

// User is the authenticated principal of a request; accounts themselves live in the backend.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles"`
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u User) IsStaff() bool {
	return u.RoleStartsWith("staff:")
}

// CanManageRecords reports whether the user may create, update or delete school records.
func (u User) CanManageRecords() bool {
	return u.IsAdmin() || u.IsStaff() || u.IsTeacher()
}

// CanEnterMarks reports whether the user may write gradebook marks.
func (u User) CanEnterMarks() bool {
	return u.IsAdmin() || u.IsTeacher()
}

// NewToken contains information needed to mint a development access token.
type NewToken struct {
	Subject string   `json:"sub" validate:"required,identifier"`
	Name    string   `json:"name"`
	Roles   []string `json:"roles" validate:"required,min=1,allroles"`
}

func (nt *NewToken) Clean() {
	nt.Subject = core.CleanString(nt.Subject)
	nt.Name = core.CleanString(nt.Name)
	roles := make([]string, 0, len(nt.Roles))
	for _, role := range nt.Roles {
		if role = core.CleanString(role, true /* lower */); role != "" {
			roles = append(roles, role)
		}
	}
	nt.Roles = roles
}

func (nt NewToken) User() User {
	return User{ID: nt.Subject, Name: nt.Name, Roles: nt.Roles}
}

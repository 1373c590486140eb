package user

import "testing"

func TestMaxRolePriority(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "no roles", want: 0},
		{name: "unknown role", roles: []string{"janitor:"}, want: 0},
		{name: "student", roles: []string{RoleStudent}, want: 1},
		{name: "faculty", roles: []string{RoleFaculty}, want: 11},
		{name: "admin", roles: []string{RoleAdmin}, want: 21},
		{name: "registrar outranks admin", roles: []string{RoleAdmin, RoleAdminRegistrar}, want: 29},
		{name: "owner outranks everyone", roles: AllRoles, want: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxRolePriority(tt.roles); got != tt.want {
				t.Errorf("MaxRolePriority() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserRoleChecks(t *testing.T) {
	tests := []struct {
		name                          string
		roles                         []string
		isAdmin, isFaculty, isStudent bool
	}{
		{name: "student", roles: []string{RoleStudent}, isStudent: true},
		{name: "faculty", roles: []string{RoleFaculty}, isFaculty: true},
		{name: "plain admin", roles: []string{RoleAdmin}, isAdmin: true},
		{name: "owner", roles: []string{RoleAdminOwner}, isAdmin: true},
		{name: "faculty with admin", roles: []string{RoleFaculty, RoleAdmin}, isAdmin: true, isFaculty: true},
		{name: "no roles", roles: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{Roles: tt.roles}
			if got := usr.IsAdmin(); got != tt.isAdmin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.isAdmin)
			}
			if got := usr.IsFaculty(); got != tt.isFaculty {
				t.Errorf("IsFaculty() = %v, want %v", got, tt.isFaculty)
			}
			if got := usr.IsStudent(); got != tt.isStudent {
				t.Errorf("IsStudent() = %v, want %v", got, tt.isStudent)
			}
		})
	}
}

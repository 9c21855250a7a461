package rbac

// Role constants
const (
	RoleSystemAdmin = "system_admin"
	RoleOrgAdmin    = "org_admin"
	RoleOrgAuditor  = "org_auditor"
	RoleOrgUser     = "org_user"
	RoleTerminal    = "terminal" // command capture components
)

// Permission constants, named <app>.<action>_<model>.
const (
	PermViewUserGroup   = "users.view_usergroup"
	PermAddUserGroup    = "users.add_usergroup"
	PermChangeUserGroup = "users.change_usergroup"
	PermDeleteUserGroup = "users.delete_usergroup"

	PermViewCommand   = "terminal.view_command"
	PermAddCommand    = "terminal.add_command"
	PermExportCommand = "terminal.export_command"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleSystemAdmin: {
		PermViewUserGroup, PermAddUserGroup, PermChangeUserGroup, PermDeleteUserGroup,
		PermViewCommand, PermAddCommand, PermExportCommand,
	},
	RoleOrgAdmin: {
		PermViewUserGroup, PermAddUserGroup, PermChangeUserGroup, PermDeleteUserGroup,
		PermViewCommand, PermExportCommand,
	},
	RoleOrgAuditor: {
		PermViewUserGroup, PermViewCommand, PermExportCommand,
	},
	RoleOrgUser: {
		PermViewUserGroup,
	},
	RoleTerminal: {
		PermAddCommand,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

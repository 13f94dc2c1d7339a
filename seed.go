package auth

// Permission names, grouped by category. The string keys are stable;
// renaming any of them would orphan persisted role and user edges.
const (
	PermUserRead       = "user:read"
	PermUserUpdateSelf = "user:update:self"
	PermUserDeleteSelf = "user:delete:self"
	PermUserUpdateAny  = "user:update:any"
	PermUserDeleteAny  = "user:delete:any"
	PermUserBan        = "user:ban"

	PermRoomCreate = "room:create"
	PermRoomJoin   = "room:join"
	PermRoomLeave  = "room:leave"
	PermRoomUpdate = "room:update"
	PermRoomDelete = "room:delete"
	PermRoomInvite = "room:invite"
	PermRoomRemove = "room:remove"
	PermRoomBan    = "room:ban"

	PermMessageSend       = "message:send"
	PermMessageEditSelf   = "message:edit:self"
	PermMessageDeleteSelf = "message:delete:self"
	PermMessageDeleteAny  = "message:delete:any"

	PermMediaUpload     = "media:upload"
	PermMediaDeleteSelf = "media:delete:self"
	PermMediaDeleteAny  = "media:delete:any"

	PermAdminDashboard = "admin:dashboard"
	PermAdminUsers     = "admin:users"
	PermAdminContent   = "admin:content"
	PermAdminSystem    = "admin:system"

	PermModMessagesDelete = "mod:messages:delete"
	PermModUsersMute      = "mod:users:mute"
	PermModReportsView    = "mod:reports:view"
	PermModReportsResolve = "mod:reports:resolve"
)

// DefaultPermissions is the full seeded catalog.
var DefaultPermissions = []Permission{
	{Name: PermUserRead, Category: "user", Description: "View user profiles"},
	{Name: PermUserUpdateSelf, Category: "user", Description: "Update own profile"},
	{Name: PermUserDeleteSelf, Category: "user", Description: "Delete own account"},
	{Name: PermUserUpdateAny, Category: "user", Description: "Update any user profile"},
	{Name: PermUserDeleteAny, Category: "user", Description: "Delete any user account"},
	{Name: PermUserBan, Category: "user", Description: "Ban users"},

	{Name: PermRoomCreate, Category: "room", Description: "Create rooms"},
	{Name: PermRoomJoin, Category: "room", Description: "Join rooms"},
	{Name: PermRoomLeave, Category: "room", Description: "Leave rooms"},
	{Name: PermRoomUpdate, Category: "room", Description: "Update room settings"},
	{Name: PermRoomDelete, Category: "room", Description: "Delete rooms"},
	{Name: PermRoomInvite, Category: "room", Description: "Invite users to rooms"},
	{Name: PermRoomRemove, Category: "room", Description: "Remove users from rooms"},
	{Name: PermRoomBan, Category: "room", Description: "Ban users from rooms"},

	{Name: PermMessageSend, Category: "message", Description: "Send messages"},
	{Name: PermMessageEditSelf, Category: "message", Description: "Edit own messages"},
	{Name: PermMessageDeleteSelf, Category: "message", Description: "Delete own messages"},
	{Name: PermMessageDeleteAny, Category: "message", Description: "Delete any messages"},

	{Name: PermMediaUpload, Category: "media", Description: "Upload media files"},
	{Name: PermMediaDeleteSelf, Category: "media", Description: "Delete own media"},
	{Name: PermMediaDeleteAny, Category: "media", Description: "Delete any media"},

	{Name: PermAdminDashboard, Category: "admin", Description: "Access admin dashboard"},
	{Name: PermAdminUsers, Category: "admin", Description: "Manage users"},
	{Name: PermAdminContent, Category: "admin", Description: "Manage content"},
	{Name: PermAdminSystem, Category: "admin", Description: "Manage system settings"},

	{Name: PermModMessagesDelete, Category: "moderation", Description: "Delete messages as moderator"},
	{Name: PermModUsersMute, Category: "moderation", Description: "Mute users"},
	{Name: PermModReportsView, Category: "moderation", Description: "View reports"},
	{Name: PermModReportsResolve, Category: "moderation", Description: "Resolve reports"},
}

// DefaultRoles is the fixed role tier set.
var DefaultRoles = []Role{
	{Name: RoleUser, Description: "Regular user with basic permissions", Level: 1},
	{Name: RoleModerator, Description: "Moderator with content management permissions", Level: 2},
	{Name: RoleAdmin, Description: "Administrator with full system access", Level: 3},
}

// userBaselinePermissions is the USER role's baseline set.
var userBaselinePermissions = []string{
	PermUserRead,
	PermUserUpdateSelf,
	PermUserDeleteSelf,
	PermRoomJoin,
	PermRoomLeave,
	PermMessageSend,
	PermMessageEditSelf,
	PermMessageDeleteSelf,
	PermMediaUpload,
	PermMediaDeleteSelf,
}

// moderatorBaselinePermissions extends the USER baseline with
// moderation capabilities.
var moderatorBaselinePermissions = append(append([]string{}, userBaselinePermissions...),
	PermModMessagesDelete,
	PermModUsersMute,
	PermModReportsView,
	PermModReportsResolve,
	PermMessageDeleteAny,
	PermRoomCreate,
	PermRoomInvite,
	PermRoomRemove,
	PermRoomBan,
)

// RoleBaseline returns the baseline permission names for a seeded role.
// ADMIN gets every permission in the catalog.
func RoleBaseline(roleName string) []string {
	switch roleName {
	case RoleUser:
		return append([]string{}, userBaselinePermissions...)
	case RoleModerator:
		return append([]string{}, moderatorBaselinePermissions...)
	case RoleAdmin:
		names := make([]string, 0, len(DefaultPermissions))
		for _, p := range DefaultPermissions {
			names = append(names, p.Name)
		}
		return names
	}
	return nil
}

package dashboard

import "everlasting-kin/internal/models"

type View string

const (
	ViewNone   View = ""
	ViewAdmin  View = "admin"
	ViewStaff  View = "staff"
	ViewPublic View = "public"
)

// SelectView maps a role onto the dashboard it sees.
func SelectView(role models.UserRole) View {
	switch role {
	case models.RoleAdmin:
		return ViewAdmin
	case models.RoleMortuaryStaff, models.RolePolice:
		return ViewStaff
	case models.RolePublicUser:
		return ViewPublic
	}
	return ViewNone
}

// ViewFor is SelectView for a signed-in user; no user means no view.
func ViewFor(user *models.User) View {
	if user == nil {
		return ViewNone
	}
	return SelectView(user.Role)
}

package rbac

// Session roles carried in token claims. Unknown or missing roles
// normalize to guest, which can observe and signal presence but is
// never granted anything beyond that by downstream checks.
type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleInterviewer Role = "INTERVIEWER"
	RoleGuest       Role = "GUEST"
)

type Action string

const (
	ActionObserve  Action = "observe"
	ActionEdit     Action = "edit"
	ActionModerate Action = "moderate"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleInterviewer:
		return true
	case RoleStudent:
		return action == ActionObserve || action == ActionEdit
	case RoleGuest:
		return action == ActionObserve
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleStudent, RoleInterviewer, RoleGuest:
		return Role(role)
	default:
		return RoleGuest
	}
}

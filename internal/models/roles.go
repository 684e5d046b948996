package models

// User roles carried by gateway headers and JWT claims
const (
	RoleAdmin = "admin" // may reset and delete streams
	RoleUser  = "user"
)

// CanManageStreams reports whether a role may overwrite or delete stream state
func CanManageStreams(role string) bool {
	return role == RoleAdmin
}

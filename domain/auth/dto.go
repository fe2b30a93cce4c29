package auth

// StatusResponse is the exact wire shape of GET /api/auth-status. User is a
// JSON null for anonymous visitors, never an empty object.
type StatusResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserInfo `json:"user"`
}

type UserInfo struct {
	ID string `json:"id"`
}

package models

// User is the account record owned by the external shop backend. Credential
// checks and persistence happen there; this is only the session-facing view.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

package request

// ValidateUsernameRequest is the request body for checking a username
type ValidateUsernameRequest struct {
	Username *string `json:"username"`
}

package models

type (
	// TokenData is the identity established by the auth service for a
	// session token.
	TokenData struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}

	// UserData are the account details the auth service holds for a user.
	UserData struct {
		UserID      string `json:"userid"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
	}
)

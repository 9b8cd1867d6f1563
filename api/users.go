package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

const statusInvalidEmail = "A valid email address is required"

type (
	lookupBody struct {
		Email string `json:"email"`
	}

	lookupResponse struct {
		UserId      string `json:"userId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
		Message     string `json:"message,omitempty"`
	}
)

// LookupUser resolves an email address to an account so the inviter UI
// can show whether the invitee already has an account. An unknown email
// is not an error, the response just carries an empty userId.
func (a *Api) LookupUser(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	defer req.Body.Close()
	var lb = &lookupBody{}
	if err := json.NewDecoder(req.Body).Decode(lb); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		return
	}
	if !strings.Contains(lb.Email, "@") {
		a.sendError(ctx, res, http.StatusBadRequest, statusInvalidEmail)
		return
	}

	user, err := a.auth.GetUserByEmail(ctx, lb.Email, bearerToken(req))
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_USER, err)
		return
	}
	if user == nil {
		a.sendModelAsResWithStatus(ctx, res, &lookupResponse{
			Email:   lb.Email,
			Message: "No account exists for this email",
		}, http.StatusOK)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, &lookupResponse{
		UserId:      user.UserID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}, http.StatusOK)
}

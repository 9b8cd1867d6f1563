package api

import (
	"encoding/json"
	"net/http"

	"github.com/sharethoughts/courier/models"
)

type (
	verifyBody struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}

	verifyResponse struct {
		Valid         bool        `json:"valid"`
		Message       string      `json:"message,omitempty"`
		Email         string      `json:"email,omitempty"`
		Role          models.Role `json:"role,omitempty"`
		DocumentId    string      `json:"documentId,omitempty"`
		DocumentTitle string      `json:"documentTitle,omitempty"`
	}
)

// Check that a (token, email) pair identifies a pending, unexpired
// invitation. No session is required, the token is the credential. The
// check is not read-only: a pending invitation found past its expiry is
// transitioned to expired here.
//
// http.StatusOK with the invitation details (the token is not echoed back)
// http.StatusNotFound when the token is unknown
// http.StatusBadRequest when the invitation is not pending or has expired
// http.StatusForbidden when the email does not match
func (a *Api) VerifyInvitation(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()

	defer req.Body.Close()
	var vb = &verifyBody{}
	if err := json.NewDecoder(req.Body).Decode(vb); err != nil {
		a.sendErrorLog(ctx, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		a.sendModelAsResWithStatus(ctx, res, verifyResponse{Valid: false, Message: STATUS_ERR_DECODING_BODY}, http.StatusBadRequest)
		return
	}

	if vb.Token == "" || vb.Email == "" {
		a.sendModelAsResWithStatus(ctx, res, verifyResponse{Valid: false, Message: "Token and email are required"}, http.StatusBadRequest)
		return
	}

	invitation, code, message := a.checkInvitation(ctx, vb.Token, vb.Email)
	if invitation == nil {
		a.sendErrorLog(ctx, code, message)
		a.sendModelAsResWithStatus(ctx, res, verifyResponse{Valid: false, Message: message}, code)
		return
	}

	a.sendModelAsResWithStatus(ctx, res, verifyResponse{
		Valid:         true,
		Email:         invitation.Email,
		Role:          invitation.Role,
		DocumentId:    invitation.DocumentId,
		DocumentTitle: invitation.DocumentTitle,
	}, http.StatusOK)
}

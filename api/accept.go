package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sharethoughts/courier/clients"
	"github.com/sharethoughts/courier/models"
)

type acceptBody struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	UserId string `json:"userId"`
}

// Complete a pending invitation: grant the invitee access to the document
// and mark the invitation accepted.
//
// The access grant is a single atomic write on the document record. The
// invitation's status update is a second, separate write; a crash in
// between leaves the invitation pending with access already granted, which
// a retry re-grants idempotently with the same values.
//
// When the request carries an Authorization token it is verified and the
// resulting uid must equal the body's userId. Without a token the declared
// userId is trusted, for wire compatibility with clients that authenticate
// out-of-band.
//
// http.StatusOK with {"success": true}
// http.StatusBadRequest when fields are missing, status is wrong or expired
// http.StatusForbidden when the email or the verified identity mismatches
// http.StatusNotFound when the invitation or the document is unknown
func (a *Api) CompleteInvitation(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()

	defer req.Body.Close()
	var ab = &acceptBody{}
	if err := json.NewDecoder(req.Body).Decode(ab); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		return
	}

	if ab.Token == "" || ab.Email == "" || ab.UserId == "" {
		a.sendError(ctx, res, http.StatusBadRequest, "Token, email, and userId are required")
		return
	}

	if bearer := bearerToken(req); bearer != "" {
		td, err := a.auth.CheckToken(ctx, bearer)
		if err != nil {
			a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_VERIFYING_TOKEN, err)
			return
		}
		if td == nil {
			a.sendError(ctx, res, http.StatusForbidden, STATUS_INVALID_TOKEN)
			return
		}
		if td.UserID != ab.UserId {
			a.sendError(ctx, res, http.StatusForbidden, STATUS_UNAUTHORIZED)
			return
		}
	}

	invitation, code, message := a.checkInvitation(ctx, ab.Token, ab.Email)
	if invitation == nil {
		if code == http.StatusNotFound {
			message = statusInvitationMissing
		}
		a.sendError(ctx, res, code, message)
		return
	}

	now := time.Now().UTC()
	entry := models.AccessEntry{
		Role:      invitation.Role,
		Email:     invitation.Email,
		Timestamp: now,
	}
	if err := a.Store.GrantAccess(ctx, invitation.DocumentId, ab.UserId, entry); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			a.sendError(ctx, res, http.StatusNotFound, "Document not found")
			return
		}
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_DOCUMENT, err)
		return
	}
	a.logger(ctx).With(
		zap.String("documentId", invitation.DocumentId),
		zap.String("userId", ab.UserId),
	).Info("document access granted")

	invitation.UpdateStatus(models.StatusAccepted)
	invitation.AcceptedAt = now
	invitation.UserId = ab.UserId
	if err := a.Store.UpsertInvitation(ctx, invitation); err != nil {
		// access is already granted at this point; the invitation stays
		// pending and a retried completion re-grants the same entry
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_INVITATION, err)
		return
	}

	a.sendModelAsResWithStatus(ctx, res, resultResponse{Success: true}, http.StatusOK)
}

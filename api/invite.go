package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sharethoughts/courier/models"
)

const (
	//Status message we return from the service
	statusInvitationNotFound = "Invalid or expired invitation"
	statusInvitationMissing  = "Invitation not found"
	statusInvitationStatus   = "Invalid invitation status"
	statusEmailMismatch      = "Email does not match invitation"
	statusInvitationExpired  = "Invitation has expired"
	statusMissingFields      = "Missing required fields"
	statusMissingUserId      = "Required userid is missing"
	statusInvalidRole        = `Invalid role. Must be "viewer" or "editor"`
)

type (
	//Invite details for generating a new invitation
	inviteBody struct {
		Email         string      `json:"email"`
		Role          models.Role `json:"role"`
		DocumentId    string      `json:"documentId"`
		DocumentTitle string      `json:"documentTitle"`
		InviterEmail  string      `json:"inviterEmail"`
	}
)

// Generate and send the invitation email, write the error if it fails
func (a *Api) sendInvitationEmail(req *http.Request, invitation *models.Invitation) bool {
	ctx := req.Context()

	inviterEmail := invitation.InviterEmail
	if inviterEmail == "" {
		inviterEmail = a.Config.SenderAddress
	}

	content := map[string]interface{}{
		"DocumentTitle": invitation.DocumentTitle,
		"InviterEmail":  inviterEmail,
		"Email":         invitation.Email,
		"AcceptURL":     a.getWebURL(req) + "/accept-invitation?token=" + invitation.Token,
	}

	template, ok := a.templates[models.TemplateNameInvitation]
	if !ok {
		a.logger(ctx).With(zap.String("template", string(models.TemplateNameInvitation))).
			Error("unknown template type")
		return false
	}

	subject, body, err := template.Execute(content)
	if err != nil {
		a.logger(ctx).With(zap.Error(err)).Error("executing email template")
		return false
	}

	if status, details := a.notifier.Send([]string{invitation.Email}, subject, body); status != http.StatusOK {
		a.logger(ctx).Errorw(
			"error sending email",
			"email", invitation.Email,
			"subject", subject,
			"status", status,
			"message", details,
		)
		return false
	}
	return true
}

// Issue an invitation for a document and email the invitee an accept link.
//
// The token is only delivered through the notification channel, it is never
// part of the response body. A notifier failure is reported to the caller
// even though the pending record is kept: the invitation survives and can
// still be shared as a raw link.
//
// http.StatusOK with {"success": true}
// http.StatusUnauthorized when the caller carries no valid session
// http.StatusBadRequest when fields are missing or the role is unknown
// http.StatusInternalServerError when persisting or notifying fails
func (a *Api) SendInvitation(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	defer req.Body.Close()
	var ib = &inviteBody{}
	if err := json.NewDecoder(req.Body).Decode(ib); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		return
	}

	if ib.Email == "" || ib.Role == "" || ib.DocumentId == "" || ib.DocumentTitle == "" {
		a.sendError(ctx, res, http.StatusBadRequest, statusMissingFields)
		return
	}
	if !ib.Role.Valid() {
		a.sendError(ctx, res, http.StatusBadRequest, statusInvalidRole)
		return
	}

	invitation, err := models.NewInvitation(ib.Email, ib.Role, ib.DocumentId, ib.DocumentTitle, ib.InviterEmail, token.UserID)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_INVITATION, err)
		return
	}

	if err := a.Store.UpsertInvitation(ctx, invitation); err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_INVITATION, err)
		return
	}
	a.logger(ctx).With(zap.String("documentId", invitation.DocumentId)).Info("invitation created")

	if !a.sendInvitationEmail(req, invitation) {
		// the record stays pending, only delivery failed
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SENDING_EMAIL)
		return
	}
	a.logger(ctx).Info("invitation sent")

	a.sendModelAsResWithStatus(ctx, res, resultResponse{Success: true}, http.StatusOK)
}

// Get the still-pending invitations the user has sent.
//
// There is no way to tell if an invitation has been ignored.
func (a *Api) GetSentInvitations(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	inviterID := vars["userid"]
	if inviterID == "" {
		a.sendError(ctx, res, http.StatusBadRequest, statusMissingUserId)
		return
	}
	if inviterID != token.UserID {
		a.sendError(ctx, res, http.StatusUnauthorized, STATUS_UNAUTHORIZED)
		return
	}

	invitations, err := a.Store.FindInvitations(ctx, &models.Invitation{InviterId: inviterID}, models.StatusPending)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_INVITATION, err)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, invitations, http.StatusOK)
}

// Get the pending invitations addressed to the user's verified email.
func (a *Api) GetReceivedInvitations(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	inviteeID := vars["userid"]
	if inviteeID == "" {
		a.sendError(ctx, res, http.StatusBadRequest, statusMissingUserId)
		return
	}
	if inviteeID != token.UserID {
		a.sendError(ctx, res, http.StatusUnauthorized, STATUS_UNAUTHORIZED)
		return
	}
	// A session with no email claim owns no received invitations. An empty
	// email must never reach the store, where it would match every record.
	if token.Email == "" {
		a.sendError(ctx, res, http.StatusForbidden, STATUS_UNAUTHORIZED)
		return
	}

	invitations, err := a.Store.FindInvitations(ctx, &models.Invitation{Email: token.Email}, models.StatusPending)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_INVITATION, err)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, invitations, http.StatusOK)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sharethoughts/courier/clients"
	"github.com/sharethoughts/courier/models"
)

const (
	statusDocumentNotFound = "Document not found"
	statusMissingTitle     = "Required title is missing"
)

type (
	documentBody struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}

	contentBody struct {
		Content string `json:"content"`
	}
)

// findAccessibleDocument loads a document and enforces view access,
// writing the error response itself when it returns nil.
func (a *Api) findAccessibleDocument(res http.ResponseWriter, req *http.Request, id string, token *models.TokenData) *models.Document {
	ctx := req.Context()
	document, err := a.Store.FindDocument(ctx, id)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_DOCUMENT, err)
		return nil
	}
	if document == nil {
		a.sendError(ctx, res, http.StatusNotFound, statusDocumentNotFound)
		return nil
	}
	if !document.CanView(token.UserID) {
		a.sendError(ctx, res, http.StatusForbidden, STATUS_UNAUTHORIZED)
		return nil
	}
	return document
}

// Create a document owned by the caller. The owner's access entry is
// seeded so the document lists for them like any shared one.
func (a *Api) CreateDocument(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	defer req.Body.Close()
	var db = &documentBody{}
	if err := json.NewDecoder(req.Body).Decode(db); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		return
	}
	if db.Title == "" {
		a.sendError(ctx, res, http.StatusBadRequest, statusMissingTitle)
		return
	}

	document := models.NewDocument(db.Title, token.UserID, token.Email)
	document.Content = db.Content

	if err := a.Store.UpsertDocument(ctx, document); err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_DOCUMENT, err)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, document, http.StatusOK)
}

// Get a document the caller owns or has been granted access to.
func (a *Api) GetDocument(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	token := a.token(res, req)
	if token == nil {
		return
	}

	document := a.findAccessibleDocument(res, req, vars["documentid"], token)
	if document == nil {
		return
	}
	a.sendModelAsResWithStatus(req.Context(), res, document, http.StatusOK)
}

// List the documents the caller owns or collaborates on.
func (a *Api) ListDocuments(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	documents, err := a.Store.FindDocumentsForUser(ctx, token.UserID)
	if err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_FINDING_DOCUMENT, err)
		return
	}
	if documents == nil {
		documents = []*models.Document{}
	}
	a.sendModelAsResWithStatus(ctx, res, documents, http.StatusOK)
}

// Autosave a document's content. Last write wins, there is no merge.
// Requires the editor or owner role.
func (a *Api) SaveDocumentContent(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	defer req.Body.Close()
	var cb = &contentBody{}
	if err := json.NewDecoder(req.Body).Decode(cb); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		return
	}

	document := a.findAccessibleDocument(res, req, vars["documentid"], token)
	if document == nil {
		return
	}
	if !document.CanEdit(token.UserID) {
		a.sendError(ctx, res, http.StatusForbidden, STATUS_UNAUTHORIZED)
		return
	}

	if err := a.Store.SetDocumentContent(ctx, document.Id, cb.Content, time.Now().UTC()); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			a.sendError(ctx, res, http.StatusNotFound, statusDocumentNotFound)
			return
		}
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_DOCUMENT, err)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, resultResponse{Success: true}, http.StatusOK)
}

// Delete a document. Owner only.
func (a *Api) DeleteDocument(res http.ResponseWriter, req *http.Request, vars map[string]string) {
	ctx := req.Context()
	token := a.token(res, req)
	if token == nil {
		return
	}

	document := a.findAccessibleDocument(res, req, vars["documentid"], token)
	if document == nil {
		return
	}
	if document.OwnerId != token.UserID {
		a.sendError(ctx, res, http.StatusForbidden, STATUS_UNAUTHORIZED)
		return
	}

	if err := a.Store.RemoveDocument(ctx, document.Id); err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, STATUS_ERR_SAVING_DOCUMENT, err)
		return
	}
	a.sendModelAsResWithStatus(ctx, res, resultResponse{Success: true}, http.StatusOK)
}

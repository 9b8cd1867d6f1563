package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/sharethoughts/courier/clients"
	"github.com/sharethoughts/courier/models"
)

func postAccept(t *testing.T, testRtr *mux.Router, payload testJSONObject, bearer string) (int, testJSONObject) {
	t.Helper()
	var body = &bytes.Buffer{}
	json.NewEncoder(body).Encode(payload)
	request, _ := http.NewRequest("POST", "/confirm/accept", body)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	response := httptest.NewRecorder()
	testRtr.ServeHTTP(response, request)
	var result testJSONObject
	json.NewDecoder(response.Body).Decode(&result)
	return response.Code, result
}

func TestCompleteInvitation_GrantsAccessOnce(t *testing.T) {
	store := clients.NewMockStoreClient(false)
	document := models.NewDocument("Project Notes", testing_uid1, testing_email_uid1)
	store.UpsertDocument(context.Background(), document)

	invitation, _ := models.NewInvitation(testing_email_uid2, models.RoleEditor, document.Id, document.Title, testing_email_uid1, testing_uid1)
	store.UpsertInvitation(context.Background(), invitation)

	testRtr := initTestingRouter(t, store, clients.NewMockNotifier(), newMockAuthClient())

	code, result := postAccept(t, testRtr, testJSONObject{
		"token":  invitation.Token,
		"email":  testing_email_uid2,
		"userId": testing_uid2,
	}, "")
	if code != http.StatusOK {
		t.Fatalf("Resp given [%d] expected [%d]: %v", code, http.StatusOK, result)
	}
	if result["success"] != true {
		t.Fatalf("Result given [%v] expected success", result)
	}

	granted, _ := store.FindDocument(context.Background(), document.Id)
	entry, ok := granted.AccessFor(testing_uid2)
	if !ok {
		t.Fatal("No access entry was granted")
	}
	if entry.Role != models.RoleEditor {
		t.Fatalf("Role given [%s] expected [%s]", entry.Role, models.RoleEditor)
	}
	if entry.Email != testing_email_uid2 {
		t.Fatalf("Email given [%s] expected [%s]", entry.Email, testing_email_uid2)
	}
	if entry.Timestamp.IsZero() {
		t.Fatal("Access entry has no timestamp")
	}

	completed, _ := store.FindInvitation(context.Background(), invitation.Token)
	if completed.Status != models.StatusAccepted {
		t.Fatalf("Status given [%s] expected [%s]", completed.Status, models.StatusAccepted)
	}
	if completed.UserId != testing_uid2 {
		t.Fatalf("UserId given [%s] expected [%s]", completed.UserId, testing_uid2)
	}
	if completed.AcceptedAt.IsZero() {
		t.Fatal("AcceptedAt was not recorded")
	}

	// an accepted invitation is terminal, a second complete fails
	code, result = postAccept(t, testRtr, testJSONObject{
		"token":  invitation.Token,
		"email":  testing_email_uid2,
		"userId": testing_uid2,
	}, "")
	if code != http.StatusBadRequest {
		t.Fatalf("Resp given [%d] expected [%d]", code, http.StatusBadRequest)
	}
	if result["message"] != statusInvitationStatus {
		t.Fatalf("Message given [%v] expected [%s]", result["message"], statusInvitationStatus)
	}
}

func TestCompleteInvitation_Responds(t *testing.T) {
	store := clients.NewMockStoreClient(false)
	document := models.NewDocument("Project Notes", testing_uid1, testing_email_uid1)
	store.UpsertDocument(context.Background(), document)

	invitation, _ := models.NewInvitation(testing_email_uid2, models.RoleViewer, document.Id, document.Title, testing_email_uid1, testing_uid1)
	store.UpsertInvitation(context.Background(), invitation)

	orphan, _ := models.NewInvitation(testing_email_uid2, models.RoleViewer, "no-such-doc", "Gone", testing_email_uid1, testing_uid1)
	store.UpsertInvitation(context.Background(), orphan)

	stale, _ := models.NewInvitation(testing_email_uid2, models.RoleViewer, document.Id, document.Title, testing_email_uid1, testing_uid1)
	stale.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	store.UpsertInvitation(context.Background(), stale)

	testRtr := initTestingRouter(t, store, clients.NewMockNotifier(), newMockAuthClient())

	tests := []toTest{
		{
			desc:     "token, email and userId are required",
			method:   "POST",
			url:      "/confirm/accept",
			respCode: http.StatusBadRequest,
			body:     testJSONObject{"token": invitation.Token, "email": testing_email_uid2},
			response: testJSONObject{"success": false, "message": "Token, email, and userId are required"},
		},
		{
			desc:     "unknown invitation token",
			method:   "POST",
			url:      "/confirm/accept",
			respCode: http.StatusNotFound,
			body: testJSONObject{
				"token":  strings.Repeat("cd", 32),
				"email":  testing_email_uid2,
				"userId": testing_uid2,
			},
			response: testJSONObject{"success": false, "message": statusInvitationMissing},
		},
		{
			desc:     "a session user cannot complete for someone else",
			method:   "POST",
			url:      "/confirm/accept",
			token:    testing_token_uid1,
			respCode: http.StatusForbidden,
			body: testJSONObject{
				"token":  invitation.Token,
				"email":  testing_email_uid2,
				"userId": testing_uid2,
			},
			response: testJSONObject{"success": false, "message": STATUS_UNAUTHORIZED},
		},
		{
			desc:     "document no longer exists",
			method:   "POST",
			url:      "/confirm/accept",
			respCode: http.StatusNotFound,
			body: testJSONObject{
				"token":  orphan.Token,
				"email":  testing_email_uid2,
				"userId": testing_uid2,
			},
			response: testJSONObject{"success": false, "message": "Document not found"},
		},
		{
			desc:     "expired invitation cannot be completed",
			method:   "POST",
			url:      "/confirm/accept",
			respCode: http.StatusBadRequest,
			body: testJSONObject{
				"token":  stale.Token,
				"email":  testing_email_uid2,
				"userId": testing_uid2,
			},
			response: testJSONObject{"success": false, "message": statusInvitationExpired},
		},
		{
			desc:     "matching session token is accepted",
			method:   "POST",
			url:      "/confirm/accept",
			token:    testing_token_uid2,
			respCode: http.StatusOK,
			body: testJSONObject{
				"token":  invitation.Token,
				"email":  testing_email_uid2,
				"userId": testing_uid2,
			},
			response: testJSONObject{"success": true},
		},
	}
	runTests(t, testRtr, tests)
}

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharethoughts/courier/clients"
)

func TestGetStatus_StatusOk(t *testing.T) {
	testRtr := initTestingRouter(t, clients.NewMockStoreClient(false), clients.NewMockNotifier(), newMockAuthClient())

	request, _ := http.NewRequest("GET", "/status", nil)
	response := httptest.NewRecorder()
	testRtr.ServeHTTP(response, request)

	if response.Code != http.StatusOK {
		t.Fatalf("Resp given [%d] expected [%d] ", response.Code, http.StatusOK)
	}
}

func TestGetStatus_StatusInternalServerError(t *testing.T) {
	testRtr := initTestingRouter(t, clients.NewMockStoreClient(make_store_fail), clients.NewMockNotifier(), newMockAuthClient())

	request, _ := http.NewRequest("GET", "/confirm/status", nil)
	response := httptest.NewRecorder()
	testRtr.ServeHTTP(response, request)

	if response.Code != http.StatusInternalServerError {
		t.Fatalf("Resp given [%d] expected [%d] ", response.Code, http.StatusInternalServerError)
	}
}

func TestGetLive_StatusOk(t *testing.T) {
	// liveness must not depend on the store
	testRtr := initTestingRouter(t, clients.NewMockStoreClient(make_store_fail), clients.NewMockNotifier(), newMockAuthClient())

	request, _ := http.NewRequest("GET", "/live", nil)
	response := httptest.NewRecorder()
	testRtr.ServeHTTP(response, request)

	if response.Code != http.StatusOK {
		t.Fatalf("Resp given [%d] expected [%d] ", response.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(response.Body)
	if string(body) != STATUS_OK {
		t.Fatalf("Body given [%s] expected [%s] ", string(body), STATUS_OK)
	}
}

func TestBearerToken(t *testing.T) {
	request, _ := http.NewRequest("GET", "/documents", nil)
	if token := bearerToken(request); token != "" {
		t.Fatalf("Token given [%s] expected empty", token)
	}

	request.Header.Set("Authorization", "Bearer "+testing_token_uid1)
	if token := bearerToken(request); token != testing_token_uid1 {
		t.Fatalf("Token given [%s] expected [%s] ", token, testing_token_uid1)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gorilla/mux"

	"github.com/sharethoughts/courier/clients"
	"github.com/sharethoughts/courier/models"
	"github.com/sharethoughts/courier/templates"
	"github.com/sharethoughts/courier/testutil"
)

const (
	make_store_fail = true

	testing_token_uid1 = "a.fake.token.for.uid.1"
	testing_uid1       = "UID123"
	testing_email_uid1 = "uid1@email.org"

	testing_token_uid2 = "a.fake.token.for.uid.2"
	testing_uid2       = "UID999"
	testing_email_uid2 = "uid2@email.org"
)

var (
	NO_PARAMS = map[string]string{}

	FAKE_CONFIG = Config{
		WebUrl:        "https://app.sharethoughts.test",
		Protocol:      "https",
		SenderAddress: "noreply@sharethoughts.test",
	}
)

// mockAuthClient resolves the fixed testing tokens above.
type mockAuthClient struct {
	checkErr  error
	lookupErr error
	users     map[string]*models.UserData
}

func newMockAuthClient() *mockAuthClient {
	return &mockAuthClient{
		users: map[string]*models.UserData{
			testing_email_uid1: {UserID: testing_uid1, Email: testing_email_uid1, DisplayName: "User One"},
			testing_email_uid2: {UserID: testing_uid2, Email: testing_email_uid2, DisplayName: "User Two"},
		},
	}
}

func (m *mockAuthClient) CheckToken(ctx context.Context, token string) (*models.TokenData, error) {
	if m.checkErr != nil {
		return nil, m.checkErr
	}
	switch token {
	case testing_token_uid1:
		return &models.TokenData{UserID: testing_uid1, Email: testing_email_uid1}, nil
	case testing_token_uid2:
		return &models.TokenData{UserID: testing_uid2, Email: testing_email_uid2}, nil
	}
	return nil, nil
}

func (m *mockAuthClient) GetUserByEmail(ctx context.Context, email, token string) (*models.UserData, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.users[email], nil
}

type (
	//common test structure
	toTest struct {
		desc     string
		method   string
		url      string
		body     testJSONObject
		token    string
		respCode int
		response testJSONObject
	}
	// testJSONObject is a generic json object, it makes it easier to define
	// blobs of json inline. We don't use the types defined by the API because
	// we want to be able to test with partial data structures.
	testJSONObject map[string]interface{}
)

func (i *testJSONObject) deepCompare(j *testJSONObject) string {
	for k := range *j {
		if reflect.DeepEqual((*i)[k], (*j)[k]) == false {
			return fmt.Sprintf("for [%s] was [%v] expected [%v] ", k, (*i)[k], (*j)[k])
		}
	}
	return ""
}

func testTemplates(t *testing.T) models.Templates {
	tpls, err := templates.New()
	if err != nil {
		t.Fatalf("building templates: %s", err)
	}
	return tpls
}

func initTestingRouter(t *testing.T, store clients.StoreClient, notifier clients.Notifier, auth AuthClient) *mux.Router {
	testRtr := mux.NewRouter()
	courier := NewApi(
		FAKE_CONFIG,
		store,
		notifier,
		auth,
		testTemplates(t),
		testutil.NewLogger(t),
	)
	courier.SetHandlers("", testRtr)
	return testRtr
}

func runTests(t *testing.T, testRtr *mux.Router, tests []toTest) {
	t.Helper()
	for idx, test := range tests {
		var body = &bytes.Buffer{}
		if len(test.body) != 0 {
			json.NewEncoder(body).Encode(test.body)
		}
		request, _ := http.NewRequest(test.method, test.url, body)
		if test.token != "" {
			request.Header.Set("Authorization", "Bearer "+test.token)
		}
		response := httptest.NewRecorder()
		testRtr.ServeHTTP(response, request)

		if response.Code != test.respCode {
			t.Fatalf("Test %d (%s) url: '%s'\nNon-expected status code %d (expected %d):\n\tbody: %v",
				idx, test.desc, test.url, response.Code, test.respCode, response.Body)
		}

		if response.Body.Len() != 0 && len(test.response) != 0 {
			// compare bodies by comparing the unmarshalled JSON results
			var result = &testJSONObject{}
			if err := json.NewDecoder(response.Body).Decode(result); err != nil {
				t.Fatalf("Test %d (%s): err decoding nonempty response body: [%v]\n [%v]\n",
					idx, test.desc, err, response.Body)
			}
			if cmp := result.deepCompare(&test.response); cmp != "" {
				t.Fatalf("Test %d (%s) url: '%s'\n\t%s\n", idx, test.desc, test.url, cmp)
			}
		}
	}
}

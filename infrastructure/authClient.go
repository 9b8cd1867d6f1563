package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/sharethoughts/courier/models"
)

type (
	// Config locates the external auth service.
	Config struct {
		Address string `required:"true"`
	}

	// Client talks to the managed auth service: it verifies session tokens
	// and resolves email addresses to accounts. Identity itself is an
	// external concern; this client only consumes the service's answers.
	Client struct {
		host       string
		httpClient *http.Client
	}
)

func ConfigProvider() (Config, error) {
	var config Config
	if err := envconfig.Process("auth", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func NewAuthClient(config Config, httpClient *http.Client) *Client {
	return &Client{
		host:       config.Address,
		httpClient: httpClient,
	}
}

// CheckToken verifies a session token. A nil result with no error means the
// token was rejected.
func (client *Client) CheckToken(ctx context.Context, token string) (*models.TokenData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.host+"/token/check", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building token check request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := client.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "checking token")
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var td models.TokenData
		if err := json.NewDecoder(res.Body).Decode(&td); err != nil {
			return nil, errors.Wrap(err, "decoding token data")
		}
		return &td, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown response code %d from service[%s]", res.StatusCode, req.URL)
	}
}

// GetUserByEmail resolves an email address to an account. A nil result with
// no error means no account exists for the address.
func (client *Client) GetUserByEmail(ctx context.Context, email, token string) (*models.UserData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.host+"/user/"+url.PathEscape(email), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building user lookup request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := client.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "getting user by email")
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var ud models.UserData
		if err := json.NewDecoder(res.Body).Decode(&ud); err != nil {
			return nil, errors.Wrap(err, "decoding user data")
		}
		return &ud, nil
	case http.StatusNotFound, http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown response code %d from service[%s]", res.StatusCode, req.URL)
	}
}

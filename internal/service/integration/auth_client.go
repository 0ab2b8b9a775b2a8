package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type AuthClient interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type LoginResult struct {
	Token string
	User  models.UserProfile
}

type authClient struct {
	rest *RestClient
}

func NewAuthClient(rest *RestClient) AuthClient {
	return &authClient{rest: rest}
}

func (c *authClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     "/login",
		resource: "login",
		body: map[string]string{
			"email":    email,
			"password": password,
		},
	})
	if err != nil {
		return nil, err
	}

	obj, err := DecodeObject(raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Token       string          `json:"token"`
		AccessToken string          `json:"access_token"`
		User        json.RawMessage `json:"user"`
		Data        struct {
			Token string          `json:"token"`
			User  json.RawMessage `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(obj, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	result := &LoginResult{Token: payload.Token}
	if result.Token == "" {
		result.Token = payload.AccessToken
	}
	if result.Token == "" {
		result.Token = payload.Data.Token
	}
	userRaw := payload.User
	if len(userRaw) == 0 {
		userRaw = payload.Data.User
	}

	if result.Token == "" || len(userRaw) == 0 {
		return nil, fmt.Errorf("%w: login response without token or user", ErrUnexpectedResponse)
	}
	if err := json.Unmarshal(userRaw, &result.User); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	c.rest.logger.Info().
		Str("user_id", result.User.ID.String()).
		Str("role", result.User.PrimaryRole()).
		Msg("User logged in")

	return result, nil
}

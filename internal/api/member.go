package api

import (
	"context"
	"fmt"
	"net/http"

	"localfund/internal/model"
)

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"pw"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	Member      model.Member `json:"member"`
}

func (c *Client) member(ctx context.Context, method, path string, body, out any) error {
	return c.doJSON(ctx, c.memberClient, method, "/api/member"+path, nil, body, out)
}

// Login authenticates. The caller stores the result in the session.
func (c *Client) Login(ctx context.Context, cred Credentials) (LoginResult, error) {
	var res LoginResult
	if err := c.member(ctx, http.MethodPost, "/login", cred, &res); err != nil {
		return LoginResult{}, err
	}
	if res.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("login response carried no access token")
	}
	return res, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, r model.Registration) error {
	return c.member(ctx, http.MethodPost, "/register", r, nil)
}

// MyPage fetches the logged in member.
func (c *Client) MyPage(ctx context.Context) (model.Member, error) {
	var m model.Member
	err := c.member(ctx, http.MethodGet, "/mypage", nil, &m)
	return m, err
}

// Logout tells the backend the session ended. Local logout proceeds regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.member(ctx, http.MethodPost, "/logout", nil, nil)
}

// Locations lists the member's saved addresses.
func (c *Client) Locations(ctx context.Context) ([]model.MemberLocation, error) {
	raw, err := c.send(ctx, c.memberClient, http.MethodGet, "/api/member/locations", nil, "", nil)
	if err != nil {
		return nil, err
	}
	list, err := decodeList[model.MemberLocation](c.log, "/api/member/locations", raw)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// CreateLocation saves an address.
func (c *Client) CreateLocation(ctx context.Context, loc model.MemberLocation) (model.MemberLocation, error) {
	var out model.MemberLocation
	err := c.member(ctx, http.MethodPost, "/locations", loc, &out)
	return out, err
}

// UpdateLocation edits a saved address.
func (c *Client) UpdateLocation(ctx context.Context, loc model.MemberLocation) (model.MemberLocation, error) {
	var out model.MemberLocation
	err := c.member(ctx, http.MethodPut, fmt.Sprintf("/locations/%d", loc.ID), loc, &out)
	return out, err
}

// DeleteLocation removes a saved address.
func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return c.member(ctx, http.MethodDelete, fmt.Sprintf("/locations/%d", id), nil, nil)
}

// UpdateProfile changes the nickname and returns the updated member.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.Member, error) {
	var out model.Member
	err := c.member(ctx, http.MethodPut, "/profile", update, &out)
	return out, err
}

// ChangePassword replaces the password. The current one must match.
func (c *Client) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	return c.member(ctx, http.MethodPut, "/password", change, nil)
}

// DeleteAccount closes the account. The caller clears the session.
func (c *Client) DeleteAccount(ctx context.Context, confirmEmail string) error {
	return c.member(ctx, http.MethodDelete, "", model.AccountDeletion{ConfirmEmail: confirmEmail}, nil)
}

// internal/apiclient/inventory.go
package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// POST /auth/login
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GET /auth/me
func (c *Client) Me(ctx context.Context, creds Credentials) (*User, error) {
	var out User
	if err := c.do(ctx, &creds, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Authenticate logs in and resolves the user id the session is created under.
func (c *Client) Authenticate(ctx context.Context, email, password string) (Credentials, error) {
	login, err := c.Login(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		return Credentials{}, err
	}
	creds := Credentials{Token: login.AccessToken}
	me, err := c.Me(ctx, creds)
	if err != nil {
		return Credentials{}, err
	}
	creds.UserID = me.ID
	return creds, nil
}

// GET /products/
func (c *Client) ListProducts(ctx context.Context, creds Credentials) ([]Product, error) {
	out := []Product{}
	if err := c.do(ctx, &creds, http.MethodGet, "/products/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GET /measurement-units/
func (c *Client) ListMeasureUnits(ctx context.Context, creds Credentials, activeOnly bool) ([]MeasureUnit, error) {
	path := "/measurement-units/"
	if activeOnly {
		path += "?active_only=true"
	}
	out := []MeasureUnit{}
	if err := c.do(ctx, &creds, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// POST /inventory-sessions/
func (c *Client) CreateSession(ctx context.Context, creds Credentials, req CreateSessionRequest) (*Session, error) {
	var out Session
	if err := c.do(ctx, &creds, http.MethodPost, "/inventory-sessions/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GET /inventory-sessions/{id}
func (c *Client) GetSession(ctx context.Context, creds Credentials, sessionID string) (*Session, error) {
	var out Session
	if err := c.do(ctx, &creds, http.MethodGet, sessionPath(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PUT /inventory-sessions/{id}/close
func (c *Client) CloseSession(ctx context.Context, creds Credentials, sessionID string) (*Session, error) {
	var out Session
	if err := c.do(ctx, &creds, http.MethodPut, sessionPath(sessionID)+"/close", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// POST /inventory-sessions/{id}/counts
func (c *Client) RegisterCount(ctx context.Context, creds Credentials, sessionID string, req RegisterCountRequest) (*Count, error) {
	var out Count
	if err := c.do(ctx, &creds, http.MethodPost, sessionPath(sessionID)+"/counts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GET /inventory-sessions/{id}/counts
func (c *Client) ListCounts(ctx context.Context, creds Credentials, sessionID string) ([]Count, error) {
	out := []Count{}
	if err := c.do(ctx, &creds, http.MethodGet, sessionPath(sessionID)+"/counts", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Count{}
	}
	return out, nil
}

func sessionPath(sessionID string) string {
	return "/inventory-sessions/" + url.PathEscape(sessionID)
}

// GET /warehouses/
func (c *Client) ListWarehouses(ctx context.Context, creds Credentials) ([]Warehouse, error) {
	out := []Warehouse{}
	if err := c.do(ctx, &creds, http.MethodGet, "/warehouses/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// POST /inventory-sessions/{id}/products
func (c *Client) AddSessionProducts(ctx context.Context, creds Credentials, sessionID string, productIDs []string) (int, error) {
	var out AddSessionProductsResponse
	req := AddSessionProductsRequest{ProductIDs: productIDs}
	if err := c.do(ctx, &creds, http.MethodPost, sessionPath(sessionID)+"/products", req, &out); err != nil {
		return 0, err
	}
	return out.Added, nil
}

// GET /inventory-sessions/{id}/products
func (c *Client) ListSessionProducts(ctx context.Context, creds Credentials, sessionID string) ([]SessionProduct, error) {
	out := []SessionProduct{}
	if err := c.do(ctx, &creds, http.MethodGet, sessionPath(sessionID)+"/products", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []SessionProduct{}
	}
	return out, nil
}

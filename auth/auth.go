// Package auth obtains bearer tokens for outbound provider requests with the
// OAuth2 client credentials flow.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches the access token until it expires. It is safe for
// concurrent use.
type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// GetToken returns the cached token while it is valid and fetches a new one
// otherwise.
func (c *ClientCred) GetToken(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token, nil
	}
	return c.fetch(ctx)
}

// ForceRefresh discards the cached token and fetches a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetch(ctx)
}

func (c *ClientCred) fetch(ctx context.Context) (*oauth2.Token, error) {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok, nil
}

// SetAuthHeader adds the bearer token to r, fetching one with the request
// context when needed.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.GetToken(r.Context())
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}

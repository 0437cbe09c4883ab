package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/model"
)

// Client talks to the auth service's HTTP boundary. The message service
// never touches the identity store directly; every cross-service read goes
// through here.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// UserExists asks the auth service whether the user id is known. True only
// on a 2xx response; a network failure or any other status reads as "does
// not exist". Single attempt, no retry.
func (c *Client) UserExists(ctx context.Context, userID string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/auth/userexist/"+url.PathEscape(userID), nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// FillContacts asks the auth service to attach usernames and emails to a
// contact list.
func (c *Client) FillContacts(ctx context.Context, contacts []model.Contact) ([]model.Contact, error) {
	body, err := json.Marshal(contacts)
	if err != nil {
		return nil, fmt.Errorf("marshal contacts: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/fillcontacts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fill contacts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fill contacts: unexpected status %d", resp.StatusCode)
	}

	var filled []model.Contact
	if err := json.NewDecoder(resp.Body).Decode(&filled); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return filled, nil
}

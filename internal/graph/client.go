package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/meridianops/rostersync/internal/logger"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// userSelectFields are the user attributes fetched when listing the
// directory. They cover everything needed to decide syncability and to
// build the exported roster.
const userSelectFields = "id,displayName,userPrincipalName,givenName,surname," +
	"department,jobTitle,officeLocation,mobilePhone,businessPhones,mail"

// Client talks to Microsoft Graph on behalf of one tenant. All requests
// are bearer-authenticated through the shared TokenManager and paced by
// the rate limiter. Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenManager
	limiter    *RateLimiter
}

// NewClient creates a Graph client using the given token manager.
func NewClient(tokens *TokenManager) *Client {
	return &Client{
		baseURL:    graphBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
		limiter:    NewRateLimiter(),
	}
}

// ListUsers retrieves every user in the directory, following
// @odata.nextLink until the listing is exhausted.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	url := c.baseURL + "/users?$select=" + userSelectFields

	for url != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}

		var page struct {
			Value    []User `json:"value"`
			NextLink string `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode users page: %v", ErrMalformedResponse, err)
		}

		users = append(users, page.Value...)
		url = page.NextLink
	}

	return users, nil
}

// GetUser retrieves a single user by id or userPrincipalName.
func (c *Client) GetUser(ctx context.Context, upn string) (*User, error) {
	body, err := c.get(ctx, c.baseURL+"/users/"+upn)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", upn, err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrMalformedResponse, err)
	}
	return &user, nil
}

// ListContactFolders retrieves a user's contact folders.
func (c *Client) ListContactFolders(ctx context.Context, userID string) ([]ContactFolder, error) {
	var folders []ContactFolder
	url := c.baseURL + "/users/" + userID + "/contactFolders"

	for url != "" {
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("list contact folders: %w", err)
		}

		var page struct {
			Value    []ContactFolder `json:"value"`
			NextLink string          `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode contact folders: %v", ErrMalformedResponse, err)
		}

		folders = append(folders, page.Value...)
		url = page.NextLink
	}

	return folders, nil
}

// CreateContactFolder creates a contact folder with the given display name.
func (c *Client) CreateContactFolder(ctx context.Context, userID, displayName string) (*ContactFolder, error) {
	payload, err := json.Marshal(map[string]string{"displayName": displayName})
	if err != nil {
		return nil, fmt.Errorf("encode folder payload: %w", err)
	}

	body, status, err := c.post(ctx, c.baseURL+"/users/"+userID+"/contactFolders", payload)
	if err != nil {
		return nil, fmt.Errorf("create contact folder: %w", err)
	}
	if !IsSuccess(status) {
		return nil, fmt.Errorf("%w: create contact folder status %d: %w",
			ErrTransport, status, WrapError(status))
	}

	var folder ContactFolder
	if err := json.Unmarshal(body, &folder); err != nil {
		return nil, fmt.Errorf("%w: decode created folder: %v", ErrMalformedResponse, err)
	}
	return &folder, nil
}

// ListContacts retrieves every contact in a user's folder, following
// @odata.nextLink until the listing is exhausted.
func (c *Client) ListContacts(ctx context.Context, userID, folderID string) ([]Contact, error) {
	var contacts []Contact
	url := c.baseURL + "/users/" + userID + "/contactFolders/" + folderID + "/contacts"

	for url != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}

		var page struct {
			Value    []Contact `json:"value"`
			NextLink string    `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: decode contacts page: %v", ErrMalformedResponse, err)
		}

		contacts = append(contacts, page.Value...)
		url = page.NextLink
	}

	return contacts, nil
}

// get performs an authenticated GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	c.recordThrottle(resp)

	if resp.StatusCode != http.StatusOK {
		logger.Debug("graph: GET %s failed with status %d: %s", url, resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d: %w", ErrTransport, resp.StatusCode, WrapError(resp.StatusCode))
	}

	return body, nil
}

// post performs an authenticated JSON POST and returns the body and status.
func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	c.recordThrottle(resp)

	return body, resp.StatusCode, nil
}

// recordThrottle feeds 429 responses back into the rate limiter.
func (c *Client) recordThrottle(resp *http.Response) {
	if !IsRateLimited(resp.StatusCode) {
		return
	}
	retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	logger.Warn("graph: throttled, backing off %ds", retryAfter)
	c.limiter.RecordRateLimitError(retryAfter)
}

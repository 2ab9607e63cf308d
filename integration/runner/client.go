package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// APIError is a non-2xx response from the session API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request returned %d: %s", e.Status, e.Body)
}

// CreateSession starts a session at start, or at the server default when
// start is empty.
func CreateSession(ctx context.Context, client *http.Client, baseURL, start string) (*Snapshot, error) {
	var body io.Reader
	if start != "" {
		reqBody, err := json.Marshal(map[string]string{"start": start})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal create request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}
	return doSnapshot(ctx, client, http.MethodPost, baseURL+"/v1/sessions", body, http.StatusCreated)
}

// GetSession reads the displayed scene and state.
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*Snapshot, error) {
	return doSnapshot(ctx, client, http.MethodGet, baseURL+"/v1/sessions/"+id.String(), nil, http.StatusOK)
}

// SelectChoice activates the choice at index.
func SelectChoice(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, index int) (*Snapshot, error) {
	url := baseURL + "/v1/sessions/" + id.String() + "/choices/" + strconv.Itoa(index)
	return doSnapshot(ctx, client, http.MethodPost, url, nil, http.StatusOK)
}

// RestartSession clears the state and returns to the start.
func RestartSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*Snapshot, error) {
	return doSnapshot(ctx, client, http.MethodPost, baseURL+"/v1/sessions/"+id.String()+"/restart", nil, http.StatusOK)
}

// DeleteSession ends a session.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, baseURL+"/v1/sessions/"+id.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func doSnapshot(ctx context.Context, client *http.Client, method, url string, body io.Reader, want int) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &snap, nil
}

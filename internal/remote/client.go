package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fariasdev/mycar-sync/internal/models"
	"github.com/fariasdev/mycar-sync/internal/sync"
)

// TokenFunc supplies the bearer token for a request, typically backed by
// the session layer.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks to the remote maintenance API. Failures are classified into
// the sync error taxonomy: transport problems are network errors, non-2xx
// responses are remote rejections carrying the server's message.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   TokenFunc
}

// NewClient builds a client for the API at REMOTE_API_URL.
func NewClient(token TokenFunc) *Client {
	base := os.Getenv("REMOTE_API_URL")
	if base == "" {
		base = "http://localhost:5000"
	}
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Token:   token,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var token string
	if c.Token != nil {
		resolved, err := c.Token(ctx)
		if err != nil {
			return sync.NewError(sync.KindNetwork, method+" "+path, fmt.Errorf("resolve token: %w", err))
		}
		token = resolved
	}
	return c.send(ctx, method, path, body, out, token)
}

// send issues one request with an already-resolved token. The login request
// goes through here directly: resolving a token for it would call back into
// the session manager, which is waiting on this very request.
func (c *Client) send(ctx context.Context, method, path string, body, out interface{}, token string) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return sync.NewError(sync.KindNetwork, op, fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return sync.NewError(sync.KindNetwork, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return sync.NewError(sync.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.WithFields(log.Fields{"op": op, "status": resp.StatusCode}).Warn("remote API rejected request")
		return sync.NewError(sync.KindRemoteRejected, op,
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(message)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return sync.NewError(sync.KindNetwork, op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// CreateCar pushes a locally created car and returns its server-assigned ID.
func (c *Client) CreateCar(ctx context.Context, car models.UserCar) (int64, error) {
	var created carDTO
	if err := c.do(ctx, http.MethodPost, "/api/cars", toCarRequest(car), &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateCar pushes a local car edit using its remote ID.
func (c *Client) UpdateCar(ctx context.Context, car models.UserCar) error {
	path := fmt.Sprintf("/api/cars/%d", *car.RemoteID)
	return c.do(ctx, http.MethodPut, path, toCarRequest(car), nil)
}

// DeleteCar removes a car from the remote store.
func (c *Client) DeleteCar(ctx context.Context, remoteID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/cars/%d", remoteID), nil, nil)
}

// GetCars fetches the authoritative car list.
func (c *Client) GetCars(ctx context.Context) ([]models.UserCar, error) {
	var dtos []carDTO
	if err := c.do(ctx, http.MethodGet, "/api/cars", nil, &dtos); err != nil {
		return nil, err
	}
	cars := make([]models.UserCar, 0, len(dtos))
	for _, dto := range dtos {
		cars = append(cars, dto.toModel())
	}
	return cars, nil
}

// CreateTask pushes a locally created task and returns its server-assigned
// ID.
func (c *Client) CreateTask(ctx context.Context, carRemoteID int64, task models.MaintenanceTask) (int64, error) {
	path := fmt.Sprintf("/api/cars/%d/maintenance-tasks", carRemoteID)
	var created taskDTO
	if err := c.do(ctx, http.MethodPost, path, toTaskRequest(carRemoteID, task), &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateTask pushes a local task edit using its remote ID.
func (c *Client) UpdateTask(ctx context.Context, carRemoteID int64, task models.MaintenanceTask) error {
	path := fmt.Sprintf("/api/maintenance-tasks/%d", *task.RemoteID)
	return c.do(ctx, http.MethodPut, path, toTaskRequest(carRemoteID, task), nil)
}

// DeleteTask removes a task from the remote store.
func (c *Client) DeleteTask(ctx context.Context, remoteID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/maintenance-tasks/%d", remoteID), nil, nil)
}

// GetTasksForCar fetches the authoritative task list for a car.
func (c *Client) GetTasksForCar(ctx context.Context, carRemoteID int64) ([]models.MaintenanceTask, error) {
	path := fmt.Sprintf("/api/cars/%d/maintenance-tasks", carRemoteID)
	var dtos []taskDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	tasks := make([]models.MaintenanceTask, 0, len(dtos))
	for _, dto := range dtos {
		tasks = append(tasks, dto.toModel())
	}
	return tasks, nil
}

// CreateHistory pushes a locally created history record and returns its
// server-assigned ID.
func (c *Client) CreateHistory(ctx context.Context, carRemoteID int64, record models.MaintenanceHistory) (int64, error) {
	path := fmt.Sprintf("/api/cars/%d/maintenance-history", carRemoteID)
	var created historyDTO
	if err := c.do(ctx, http.MethodPost, path, toHistoryRequest(carRemoteID, record), &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// DeleteHistory removes a history record from the remote store.
func (c *Client) DeleteHistory(ctx context.Context, remoteID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/maintenance-history/%d", remoteID), nil, nil)
}

// GetHistoryForCar fetches the authoritative history list for a car.
func (c *Client) GetHistoryForCar(ctx context.Context, carRemoteID int64) ([]models.MaintenanceHistory, error) {
	path := fmt.Sprintf("/api/cars/%d/maintenance-history", carRemoteID)
	var dtos []historyDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	records := make([]models.MaintenanceHistory, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, dto.toModel())
	}
	return records, nil
}

// Login authenticates against the remote API and returns the issued token.
// The request is sent unauthenticated.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.send(ctx, http.MethodPost, "/api/login", req, &resp, ""); err != nil {
		return "", err
	}
	return resp.Token, nil
}

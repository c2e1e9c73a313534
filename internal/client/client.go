// Package client - HTTP-клиент API сервера taskkeeper.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/models"
)

const defaultTimeout = 15 * time.Second

var (
	// ErrAuthorization сигнализирует об ошибке авторизации (401).
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrNotFound возвращается на ответ 404.
	ErrNotFound = errors.New("не найдено")
	// ErrNoToken возвращается, если для запроса нужен токен, а его нет.
	ErrNoToken = errors.New("токен аутентификации отсутствует, выполните login")
)

// APIError - ошибка, которую вернул сервер.
type APIError struct {
	StatusCode int
	Message    string            `json:"message"`
	Fields     map[string]string `json:"errors"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("статус %d: %s", e.StatusCode, msg)
}

// Unwrap позволяет проверять ответы через errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthorization
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Client определяет интерфейс для взаимодействия с API сервера.
type Client interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)

	ListNotes(ctx context.Context) ([]models.Note, error)
	CreateNote(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error)
	SetNotePinned(ctx context.Context, id uuid.UUID, pinned bool) (*models.Note, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error

	ListVault(ctx context.Context) ([]models.VaultEntry, error)
	CreateVaultEntry(ctx context.Context, req models.CreateVaultEntryRequest) (*models.VaultEntry, error)
	RevealVaultEntry(ctx context.Context, id uuid.UUID, accountPassword string) (string, error)
	DeleteVaultEntry(ctx context.Context, id uuid.UUID) error

	ListTasks(ctx context.Context) ([]models.Task, error)
	UpcomingTasks(ctx context.Context, days int) ([]models.Task, error)
	CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error)
	TaskStats(ctx context.Context) (*models.TaskStats, error)

	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// httpClient реализует Client поверх HTTP.
type httpClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

// do выполняет запрос. body кодируется в JSON, ответ со статусом want декодируется в out.
func (c *httpClient) do(
	ctx context.Context,
	method, path string,
	authenticated bool,
	body, out any,
	want int,
) error {
	urlPath, rawQuery, _ := strings.Cut(path, "?")
	endpoint, err := url.JoinPath(c.baseURL, urlPath)
	if err != nil {
		return fmt.Errorf("ошибка формирования URL %s: %w", path, err)
	}
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	var reader io.Reader
	if body != nil {
		data, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", marshalErr)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if c.authToken == "" {
			return ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Тело может быть не JSON, тогда останется только статус
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}

func (c *httpClient) authenticate(
	ctx context.Context,
	path string,
	body any,
	want int,
) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, false, body, &resp, want); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.Token
	return &resp, nil
}

// Register регистрирует пользователя и сохраняет выданный токен.
func (c *httpClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/register", req, http.StatusCreated)
}

// Login выполняет вход и сохраняет выданный токен.
func (c *httpClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/api/auth/login",
		models.LoginRequest{Email: email, Password: password}, http.StatusOK)
}

func (c *httpClient) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", true, nil, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *httpClient) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes", true, nil, &notes, http.StatusOK); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *httpClient) CreateNote(ctx context.Context, req models.CreateNoteRequest) (*models.Note, error) {
	var note models.Note
	if err := c.do(ctx, http.MethodPost, "/api/notes", true, req, &note, http.StatusCreated); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *httpClient) SetNotePinned(ctx context.Context, id uuid.UUID, pinned bool) (*models.Note, error) {
	var note models.Note
	body := models.UpdateNoteRequest{Pinned: &pinned}
	if err := c.do(ctx, http.MethodPatch, "/api/notes/"+id.String(), true, body, &note, http.StatusOK); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *httpClient) DeleteNote(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+id.String(), true, nil, nil, http.StatusNoContent)
}

func (c *httpClient) ListVault(ctx context.Context) ([]models.VaultEntry, error) {
	var entries []models.VaultEntry
	if err := c.do(ctx, http.MethodGet, "/api/vault", true, nil, &entries, http.StatusOK); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *httpClient) CreateVaultEntry(
	ctx context.Context,
	req models.CreateVaultEntryRequest,
) (*models.VaultEntry, error) {
	var entry models.VaultEntry
	if err := c.do(ctx, http.MethodPost, "/api/vault", true, req, &entry, http.StatusCreated); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RevealVaultEntry возвращает открытый текст секрета.
func (c *httpClient) RevealVaultEntry(ctx context.Context, id uuid.UUID, accountPassword string) (string, error) {
	var resp models.RevealResponse
	body := models.RevealRequest{AccountPassword: accountPassword}
	path := "/api/vault/" + id.String() + "/reveal"
	if err := c.do(ctx, http.MethodPost, path, true, body, &resp, http.StatusOK); err != nil {
		return "", err
	}
	return resp.Plaintext, nil
}

func (c *httpClient) DeleteVaultEntry(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/vault/"+id.String(), true, nil, nil, http.StatusNoContent)
}

func (c *httpClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", true, nil, &tasks, http.StatusOK); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *httpClient) UpcomingTasks(ctx context.Context, days int) ([]models.Task, error) {
	var tasks []models.Task
	path := "/api/tasks/upcoming"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	if err := c.do(ctx, http.MethodGet, path, true, nil, &tasks, http.StatusOK); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *httpClient) CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", true, req, &task, http.StatusCreated); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *httpClient) TaskStats(ctx context.Context) (*models.TaskStats, error) {
	var stats models.TaskStats
	if err := c.do(ctx, http.MethodGet, "/api/tasks/stats", true, nil, &stats, http.StatusOK); err != nil {
		return nil, err
	}
	return &stats, nil
}

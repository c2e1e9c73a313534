package handlers_test

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/taskkeeper/internal/middleware"
	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/services"
)

// --- Mock CredentialStore --- //

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Register(ctx context.Context, in services.RegisterInput) (*models.AuthResponse, error) {
	args := m.Called(ctx, in)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockCredentialStore) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *MockCredentialStore) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	args := m.Called(ctx, userID, password)
	return args.Bool(0), args.Error(1)
}

// --- Mock VaultService --- //

type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) List(ctx context.Context, ownerID uuid.UUID) ([]models.VaultEntry, error) {
	args := m.Called(ctx, ownerID)
	entries, _ := args.Get(0).([]models.VaultEntry)
	return entries, args.Error(1)
}

func (m *MockVaultService) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	in services.CreateVaultEntryInput,
) (*models.VaultEntry, error) {
	args := m.Called(ctx, ownerID, in)
	entry, _ := args.Get(0).(*models.VaultEntry)
	return entry, args.Error(1)
}

func (m *MockVaultService) Delete(ctx context.Context, ownerID, entryID uuid.UUID) error {
	return m.Called(ctx, ownerID, entryID).Error(0)
}

func (m *MockVaultService) Reveal(ctx context.Context, ownerID, entryID uuid.UUID, password string) (string, error) {
	args := m.Called(ctx, ownerID, entryID, password)
	return args.String(0), args.Error(1)
}

// --- Mock NoteService --- //

type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) Create(ctx context.Context, ownerID uuid.UUID, in services.CreateNoteInput) (*models.Note, error) {
	args := m.Called(ctx, ownerID, in)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

func (m *MockNoteService) SetPinned(ctx context.Context, ownerID, noteID uuid.UUID, pinned bool) (*models.Note, error) {
	args := m.Called(ctx, ownerID, noteID, pinned)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

func (m *MockNoteService) Update(
	ctx context.Context,
	ownerID, noteID uuid.UUID,
	upd services.NoteUpdate,
) (*models.Note, error) {
	args := m.Called(ctx, ownerID, noteID, upd)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

func (m *MockNoteService) Get(ctx context.Context, ownerID, noteID uuid.UUID) (*models.Note, error) {
	args := m.Called(ctx, ownerID, noteID)
	note, _ := args.Get(0).(*models.Note)
	return note, args.Error(1)
}

func (m *MockNoteService) Delete(ctx context.Context, ownerID, noteID uuid.UUID) error {
	return m.Called(ctx, ownerID, noteID).Error(0)
}

func (m *MockNoteService) ListActive(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	args := m.Called(ctx, ownerID)
	notes, _ := args.Get(0).([]models.Note)
	return notes, args.Error(1)
}

func (m *MockNoteService) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock TaskService --- //

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) tasks(args mock.Arguments) ([]models.Task, error) {
	tasks, _ := args.Get(0).([]models.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	return m.tasks(m.Called(ctx, ownerID))
}

func (m *MockTaskService) Today(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	return m.tasks(m.Called(ctx, ownerID))
}

func (m *MockTaskService) Upcoming(ctx context.Context, ownerID uuid.UUID, days int) ([]models.Task, error) {
	return m.tasks(m.Called(ctx, ownerID, days))
}

func (m *MockTaskService) ByDate(ctx context.Context, ownerID uuid.UUID, date string) ([]models.Task, error) {
	return m.tasks(m.Called(ctx, ownerID, date))
}

func (m *MockTaskService) Stats(ctx context.Context, ownerID uuid.UUID) (*models.TaskStats, error) {
	args := m.Called(ctx, ownerID)
	stats, _ := args.Get(0).(*models.TaskStats)
	return stats, args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, ownerID uuid.UUID, in services.TaskInput) (*models.Task, error) {
	args := m.Called(ctx, ownerID, in)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Update(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	in services.TaskInput,
) (*models.Task, error) {
	args := m.Called(ctx, ownerID, taskID, in)
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return m.Called(ctx, ownerID, taskID).Error(0)
}

// --- Mock ExportService --- //

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Create(ctx context.Context, userID uuid.UUID) (*services.Export, error) {
	args := m.Called(ctx, userID)
	export, _ := args.Get(0).(*services.Export)
	return export, args.Error(1)
}

func (m *MockExportService) Download(ctx context.Context, userID uuid.UUID) (io.ReadCloser, error) {
	args := m.Called(ctx, userID)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockExportService) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// --- Helpers --- //

// withUser помещает ID пользователя в контекст так же, как это делает Authenticator.
func withUser(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ptr[T any](v T) *T { return &v }

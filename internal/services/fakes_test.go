package services_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/repository"
	"github.com/maynagashev/taskkeeper/internal/storage"
)

// fakeClock - управляемые тестом часы.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Репозитории в памяти повторяют семантику SQL-запросов postgres-реализаций.
// Поле err, если задано, возвращается из каждого метода.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	err   error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]models.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

type memVaultRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]models.VaultEntry
	err     error
}

func newMemVaultRepo() *memVaultRepo {
	return &memVaultRepo{entries: make(map[uuid.UUID]models.VaultEntry)}
}

func (r *memVaultRepo) CreateEntry(_ context.Context, entry *models.VaultEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memVaultRepo) ListEntriesByOwner(_ context.Context, ownerID uuid.UUID) ([]models.VaultEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.VaultEntry, 0)
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memVaultRepo) GetEntry(_ context.Context, ownerID, entryID uuid.UUID) (*models.VaultEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	e, ok := r.entries[entryID]
	if !ok || e.OwnerID != ownerID {
		return nil, repository.ErrVaultEntryNotFound
	}
	return &e, nil
}

func (r *memVaultRepo) DeleteEntry(_ context.Context, ownerID, entryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	e, ok := r.entries[entryID]
	if !ok || e.OwnerID != ownerID {
		return repository.ErrVaultEntryNotFound
	}
	delete(r.entries, entryID)
	return nil
}

type memNoteRepo struct {
	mu    sync.Mutex
	notes map[uuid.UUID]models.Note
	err   error
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: make(map[uuid.UUID]models.Note)}
}

func noteAlive(n models.Note, now time.Time) bool {
	return n.Pinned || (n.ExpiresAt != nil && n.ExpiresAt.After(now))
}

func (r *memNoteRepo) CreateNote(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notes[note.ID] = *note
	return nil
}

func (r *memNoteRepo) ListNotesByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Note, 0)
	for _, n := range r.notes {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memNoteRepo) GetNote(_ context.Context, ownerID, noteID uuid.UUID, now time.Time) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	n, ok := r.notes[noteID]
	if !ok || n.OwnerID != ownerID || !noteAlive(n, now) {
		return nil, repository.ErrNoteNotFound
	}
	return &n, nil
}

func (r *memNoteRepo) UpdateNote(
	_ context.Context,
	ownerID, noteID uuid.UUID,
	upd repository.NoteUpdate,
) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	n, ok := r.notes[noteID]
	if !ok || n.OwnerID != ownerID || !noteAlive(n, upd.UpdatedAt) {
		return nil, repository.ErrNoteNotFound
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.Pinned != nil {
		n.Pinned = *upd.Pinned
		n.ExpiresAt = upd.ExpiresAt
	}
	n.UpdatedAt = upd.UpdatedAt
	r.notes[noteID] = n
	return &n, nil
}

func (r *memNoteRepo) DeleteNote(_ context.Context, ownerID, noteID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	n, ok := r.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return repository.ErrNoteNotFound
	}
	delete(r.notes, noteID)
	return nil
}

func (r *memNoteRepo) DeleteExpiredNotes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for id, note := range r.notes {
		if !note.Pinned && note.ExpiresAt != nil && !note.ExpiresAt.After(now) {
			delete(r.notes, id)
			n++
		}
	}
	return n, nil
}

// raw возвращает заметку в обход проверки срока жизни.
func (r *memNoteRepo) raw(id uuid.UUID) (models.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	return n, ok
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]models.Task
	err   error
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[uuid.UUID]models.Task)}
}

func (r *memTaskRepo) CreateTask(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) GetTask(_ context.Context, ownerID, taskID uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return nil, repository.ErrTaskNotFound
	}
	return &t, nil
}

func (r *memTaskRepo) UpdateTask(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	t, ok := r.tasks[task.ID]
	if !ok || t.OwnerID != task.OwnerID {
		return repository.ErrTaskNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) DeleteTask(_ context.Context, ownerID, taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	t, ok := r.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return repository.ErrTaskNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

func (r *memTaskRepo) filter(keep func(models.Task) bool) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Task, 0)
	for _, t := range r.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memTaskRepo) ListTasksByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	return r.filter(func(t models.Task) bool { return t.OwnerID == ownerID })
}

func inRange(d *time.Time, from, to time.Time) bool {
	return d != nil && !d.Before(from) && d.Before(to)
}

func (r *memTaskRepo) ListTasksForDay(
	_ context.Context,
	ownerID uuid.UUID,
	start, end time.Time,
	includeOverall bool,
) ([]models.Task, error) {
	return r.filter(func(t models.Task) bool {
		return t.OwnerID == ownerID && (inRange(t.DueDate, start, end) || (includeOverall && t.IsOverallTask))
	})
}

func (r *memTaskRepo) ListUpcomingTasks(_ context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Task, error) {
	tasks, err := r.filter(func(t models.Task) bool {
		return t.OwnerID == ownerID && !t.IsOverallTask && inRange(t.DueDate, from, to)
	})
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(*tasks[j].DueDate) })
	return tasks, err
}

// memFiles - объектное хранилище в памяти.
type memFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemFiles() *memFiles {
	return &memFiles{objects: make(map[string][]byte)}
}

func (f *memFiles) UploadFile(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *memFiles) DownloadFile(_ context.Context, key string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memFiles) DeleteFile(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

var (
	_ repository.UserRepository  = (*memUserRepo)(nil)
	_ repository.VaultRepository = (*memVaultRepo)(nil)
	_ repository.NoteRepository  = (*memNoteRepo)(nil)
	_ repository.TaskRepository  = (*memTaskRepo)(nil)
	_ storage.FileStorage        = (*memFiles)(nil)
)

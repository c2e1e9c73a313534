package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/services"
)

func newTestNoteService() (services.NoteService, *memNoteRepo, *fakeClock) {
	repo := newMemNoteRepo()
	clock := newFakeClock()
	return services.NewNoteService(repo, clock.Now), repo, clock
}

func createNote(t *testing.T, svc services.NoteService, owner uuid.UUID, pinned bool) *models.Note {
	t.Helper()
	note, err := svc.Create(context.Background(), owner, services.CreateNoteInput{
		Title: "Заметка", Content: "текст", Pinned: pinned,
	})
	require.NoError(t, err)
	return note
}

func TestNoteService_Create(t *testing.T) {
	tests := []struct {
		name       string
		pinned     bool
		wantExpiry bool
	}{
		{name: "Незакрепленная получает срок жизни", pinned: false, wantExpiry: true},
		{name: "Закрепленная без срока", pinned: true, wantExpiry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, clock := newTestNoteService()
			note := createNote(t, svc, uuid.New(), tt.pinned)

			assert.Equal(t, tt.pinned, note.Pinned)
			if tt.wantExpiry {
				require.NotNil(t, note.ExpiresAt)
				assert.Equal(t, clock.Now().Add(services.NoteTTL), *note.ExpiresAt)
			} else {
				assert.Nil(t, note.ExpiresAt)
			}
		})
	}
}

func TestNoteService_CreateValidation(t *testing.T) {
	svc, repo, _ := newTestNoteService()

	_, err := svc.Create(context.Background(), uuid.New(), services.CreateNoteInput{Title: " "})

	var vErr *services.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "title")
	assert.Empty(t, repo.notes)
}

func TestNoteService_PinInvariant(t *testing.T) {
	svc, _, clock := newTestNoteService()
	owner := uuid.New()
	note := createNote(t, svc, owner, false)

	clock.Advance(2 * time.Hour)
	pinned, err := svc.SetPinned(context.Background(), owner, note.ID, true)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)
	assert.Nil(t, pinned.ExpiresAt)

	// Открепление отсчитывает срок от момента вызова, а не от создания
	clock.Advance(10 * 24 * time.Hour)
	unpinned, err := svc.SetPinned(context.Background(), owner, note.ID, false)
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)
	require.NotNil(t, unpinned.ExpiresAt)
	assert.WithinDuration(t, clock.Now().Add(services.NoteTTL), *unpinned.ExpiresAt, time.Second)
}

func TestNoteService_Update(t *testing.T) {
	svc, _, _ := newTestNoteService()
	owner := uuid.New()
	note := createNote(t, svc, owner, false)
	title := "Новый заголовок"

	updated, err := svc.Update(context.Background(), owner, note.ID, services.NoteUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, note.Content, updated.Content)
	// Без изменения закрепления срок жизни не меняется
	assert.Equal(t, note.ExpiresAt, updated.ExpiresAt)

	empty := ""
	_, err = svc.Update(context.Background(), owner, note.ID, services.NoteUpdate{Title: &empty})
	var vErr *services.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestNoteService_OwnershipIsolation(t *testing.T) {
	svc, repo, _ := newTestNoteService()
	alice, bob := uuid.New(), uuid.New()
	note := createNote(t, svc, alice, false)
	pin := true

	_, err := svc.Get(context.Background(), bob, note.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.SetPinned(context.Background(), bob, note.ID, true)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.Update(context.Background(), bob, note.ID, services.NoteUpdate{Pinned: &pin})
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), bob, note.ID), services.ErrNotFound)

	list, err := svc.ListActive(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, ok := repo.raw(note.ID)
	require.True(t, ok)
	assert.False(t, stored.Pinned)
}

func TestNoteService_SweepCorrectness(t *testing.T) {
	svc, repo, clock := newTestNoteService()
	owner := uuid.New()
	expired := createNote(t, svc, owner, false)
	kept := createNote(t, svc, owner, true)

	clock.Advance(services.NoteTTL + time.Minute)

	// Просроченная, но еще не удаленная заметка уже не видна
	_, err := svc.Get(context.Background(), owner, expired.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, stillStored := repo.raw(expired.ID)
	assert.True(t, stillStored)

	list, err := svc.ListActive(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	_, err = svc.Get(context.Background(), owner, expired.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, stillStored = repo.raw(expired.ID)
	assert.False(t, stillStored)
}

func TestNoteService_ExpiryBoundary(t *testing.T) {
	svc, _, clock := newTestNoteService()
	owner := uuid.New()
	note := createNote(t, svc, owner, false)

	clock.Advance(services.NoteTTL - time.Second)
	_, err := svc.Get(context.Background(), owner, note.ID)
	require.NoError(t, err)

	// expires_at <= now: ровно в момент истечения заметка уже просрочена
	clock.Advance(time.Second)
	_, err = svc.Get(context.Background(), owner, note.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	pin := true
	_, err = svc.Update(context.Background(), owner, note.ID, services.NoteUpdate{Pinned: &pin})
	assert.ErrorIs(t, err, services.ErrNotFound, "просроченную заметку нельзя спасти закреплением")
}

func TestNoteService_SweepScenario(t *testing.T) {
	t.Run("Список после истечения срока", func(t *testing.T) {
		svc, _, clock := newTestNoteService()
		owner := uuid.New()
		createNote(t, svc, owner, false)

		clock.Advance(6 * 24 * time.Hour)

		list, err := svc.ListActive(context.Background(), owner)
		require.NoError(t, err)
		assert.Empty(t, list)

		// Заметку уже удалила очистка внутри ListActive
		n, err := svc.SweepExpired(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Очистка считает заметку ровно один раз", func(t *testing.T) {
		svc, _, clock := newTestNoteService()
		owner := uuid.New()
		createNote(t, svc, owner, false)
		createNote(t, svc, uuid.New(), true)

		clock.Advance(6 * 24 * time.Hour)

		n, err := svc.SweepExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = svc.SweepExpired(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)

		list, err := svc.ListActive(context.Background(), owner)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestNoteService_ConcurrentSweeps(t *testing.T) {
	svc, _, clock := newTestNoteService()
	const total = 20
	for range total {
		createNote(t, svc, uuid.New(), false)
	}
	clock.Advance(6 * 24 * time.Hour)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		swept int64
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := svc.SweepExpired(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			swept += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(total), swept)
}

func TestNoteService_RepositoryErrors(t *testing.T) {
	svc, repo, _ := newTestNoteService()
	repo.err = errors.New("db down")
	owner := uuid.New()

	_, err := svc.ListActive(context.Background(), owner)
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrNotFound)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrNotFound)
}

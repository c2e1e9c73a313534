package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/metrics"
	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/repository"
)

// NoteTTL - срок жизни незакрепленной заметки с момента создания или открепления.
const NoteTTL = 5 * 24 * time.Hour

// NoteService управляет заметками и их сроком жизни.
type NoteService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in CreateNoteInput) (*models.Note, error)
	SetPinned(ctx context.Context, ownerID, noteID uuid.UUID, pinned bool) (*models.Note, error)
	Update(ctx context.Context, ownerID, noteID uuid.UUID, upd NoteUpdate) (*models.Note, error)
	Get(ctx context.Context, ownerID, noteID uuid.UUID) (*models.Note, error)
	Delete(ctx context.Context, ownerID, noteID uuid.UUID) error
	// ListActive сначала удаляет просроченные заметки, поэтому никогда их не возвращает.
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error)
	// SweepExpired удаляет просроченные незакрепленные заметки всех пользователей.
	SweepExpired(ctx context.Context) (int64, error)
}

var _ NoteService = (*noteService)(nil)

type noteService struct {
	noteRepo repository.NoteRepository
	now      func() time.Time
}

// NewNoteService создает сервис заметок. Часы clock задают текущее время, nil - time.Now.
func NewNoteService(noteRepo repository.NoteRepository, clock func() time.Time) NoteService {
	if clock == nil {
		clock = time.Now
	}
	return &noteService{noteRepo: noteRepo, now: clock}
}

// expiryFor вычисляет срок жизни для состояния закрепления.
func expiryFor(pinned bool, now time.Time) *time.Time {
	if pinned {
		return nil
	}
	exp := now.Add(NoteTTL)
	return &exp
}

func (s *noteService) Create(ctx context.Context, ownerID uuid.UUID, in CreateNoteInput) (*models.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	note := &models.Note{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Content:   in.Content,
		Pinned:    in.Pinned,
		ExpiresAt: expiryFor(in.Pinned, now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.noteRepo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("ошибка создания заметки: %w", err)
	}

	log.Printf("[NoteService] Заметка %s создана пользователем %s", note.ID, ownerID)
	return note, nil
}

func (s *noteService) SetPinned(ctx context.Context, ownerID, noteID uuid.UUID, pinned bool) (*models.Note, error) {
	return s.Update(ctx, ownerID, noteID, NoteUpdate{Pinned: &pinned})
}

// Update применяет частичное изменение. Смена закрепления пересчитывает срок жизни.
func (s *noteService) Update(
	ctx context.Context,
	ownerID, noteID uuid.UUID,
	upd NoteUpdate,
) (*models.Note, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	change := repository.NoteUpdate{
		Title:     upd.Title,
		Content:   upd.Content,
		Pinned:    upd.Pinned,
		UpdatedAt: now,
	}
	if upd.Pinned != nil {
		change.ExpiresAt = expiryFor(*upd.Pinned, now)
	}

	note, err := s.noteRepo.UpdateNote(ctx, ownerID, noteID, change)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления заметки: %w", err)
	}
	if note.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	return note, nil
}

// Get возвращает живую заметку. Просроченная, но еще не удаленная заметка считается отсутствующей.
func (s *noteService) Get(ctx context.Context, ownerID, noteID uuid.UUID) (*models.Note, error) {
	note, err := s.noteRepo.GetNote(ctx, ownerID, noteID, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заметки: %w", err)
	}
	if note.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, ownerID, noteID uuid.UUID) error {
	err := s.noteRepo.DeleteNote(ctx, ownerID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления заметки: %w", err)
	}

	log.Printf("[NoteService] Заметка %s удалена пользователем %s", noteID, ownerID)
	return nil
}

func (s *noteService) ListActive(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}

	notes, err := s.noteRepo.ListNotesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заметок: %w", err)
	}

	active := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if n.OwnerID == ownerID {
			active = append(active, n)
		}
	}
	return active, nil
}

func (s *noteService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.noteRepo.DeleteExpiredNotes(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки просроченных заметок: %w", err)
	}
	metrics.NotesSwept.Add(float64(n))
	return n, nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/storage"
)

const exportContentType = "application/json"

// Export - снимок данных пользователя. Секреты хранилища в нем замаскированы.
type Export struct {
	UserID       uuid.UUID           `json:"userId"`
	CreatedAt    time.Time           `json:"createdAt"`
	Tasks        []models.Task       `json:"tasks"`
	Notes        []models.Note       `json:"notes"`
	VaultEntries []models.VaultEntry `json:"vaultEntries"`
}

// ExportService выгружает данные пользователя в объектное хранилище.
type ExportService interface {
	Create(ctx context.Context, userID uuid.UUID) (*Export, error)
	// Download возвращает последний снимок. Вызывающий закрывает ReadCloser.
	Download(ctx context.Context, userID uuid.UUID) (io.ReadCloser, error)
	// Delete удаляет снимок. Повторное удаление не ошибка.
	Delete(ctx context.Context, userID uuid.UUID) error
}

var _ ExportService = (*exportService)(nil)

type exportService struct {
	tasks TaskService
	notes NoteService
	vault VaultService
	files storage.FileStorage
	now   func() time.Time
}

// NewExportService создает сервис экспорта поверх остальных сервисов.
func NewExportService(
	tasks TaskService,
	notes NoteService,
	vault VaultService,
	files storage.FileStorage,
	clock func() time.Time,
) ExportService {
	if clock == nil {
		clock = time.Now
	}
	return &exportService{tasks: tasks, notes: notes, vault: vault, files: files, now: clock}
}

// ExportObjectKey возвращает ключ объекта с последним снимком пользователя.
func ExportObjectKey(userID uuid.UUID) string {
	return fmt.Sprintf("exports/%s/latest.json", userID)
}

func (s *exportService) Create(ctx context.Context, userID uuid.UUID) (*Export, error) {
	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.vault.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	export := &Export{
		UserID:       userID,
		CreatedAt:    s.now().UTC(),
		Tasks:        tasks,
		Notes:        notes,
		VaultEntries: entries,
	}

	data, err := json.Marshal(export)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации экспорта: %w", err)
	}

	err = s.files.UploadFile(ctx, ExportObjectKey(userID), bytes.NewReader(data), int64(len(data)), exportContentType)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки экспорта: %w", err)
	}

	log.Printf("[ExportService] Экспорт пользователя %s сохранен (%d байт)", userID, len(data))
	return export, nil
}

func (s *exportService) Download(ctx context.Context, userID uuid.UUID) (io.ReadCloser, error) {
	rc, err := s.files.DownloadFile(ctx, ExportObjectKey(userID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка скачивания экспорта: %w", err)
	}
	return rc, nil
}

func (s *exportService) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.files.DeleteFile(ctx, ExportObjectKey(userID)); err != nil {
		return fmt.Errorf("ошибка удаления экспорта: %w", err)
	}
	log.Printf("[ExportService] Экспорт пользователя %s удален", userID)
	return nil
}

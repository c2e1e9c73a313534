package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/codec"
	"github.com/maynagashev/taskkeeper/internal/metrics"
	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/repository"
)

// VaultService управляет записями хранилища паролей пользователя.
// Открытый текст секрета покидает сервис только через Reveal.
type VaultService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]models.VaultEntry, error)
	Create(ctx context.Context, ownerID uuid.UUID, in CreateVaultEntryInput) (*models.VaultEntry, error)
	Delete(ctx context.Context, ownerID, entryID uuid.UUID) error
	Reveal(ctx context.Context, ownerID, entryID uuid.UUID, accountPassword string) (string, error)
}

var _ VaultService = (*vaultService)(nil)

type vaultService struct {
	vaultRepo repository.VaultRepository
	verifier  Verifier
	codec     codec.Codec
	now       func() time.Time
}

// NewVaultService создает сервис хранилища.
func NewVaultService(
	vaultRepo repository.VaultRepository,
	verifier Verifier,
	c codec.Codec,
	clock func() time.Time,
) VaultService {
	if clock == nil {
		clock = time.Now
	}
	return &vaultService{vaultRepo: vaultRepo, verifier: verifier, codec: c, now: clock}
}

// List возвращает записи владельца с замаскированными секретами.
func (s *vaultService) List(ctx context.Context, ownerID uuid.UUID) ([]models.VaultEntry, error) {
	entries, err := s.vaultRepo.ListEntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей хранилища: %w", err)
	}

	masked := make([]models.VaultEntry, 0, len(entries))
	for _, e := range entries {
		if e.OwnerID != ownerID {
			continue
		}
		masked = append(masked, e.Masked())
	}
	return masked, nil
}

// Create шифрует секрет и сохраняет запись. Возвращает запись с маской.
func (s *vaultService) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	in CreateVaultEntryInput,
) (*models.VaultEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cipherText, err := s.codec.Encode(in.Secret)
	if err != nil {
		log.Printf("[VaultService] Ошибка кодирования секрета для пользователя %s: %v", ownerID, err)
		return nil, fmt.Errorf("ошибка кодирования секрета: %w", err)
	}
	metrics.CodecOperations.WithLabelValues("encode").Inc()

	now := s.now().UTC()
	entry := &models.VaultEntry{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        in.Title,
		Description:  in.Description,
		SecretCipher: cipherText,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.vaultRepo.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("ошибка сохранения записи хранилища: %w", err)
	}

	log.Printf("[VaultService] Запись %s создана для пользователя %s", entry.ID, ownerID)
	masked := entry.Masked()
	return &masked, nil
}

// Delete удаляет запись владельца.
func (s *vaultService) Delete(ctx context.Context, ownerID, entryID uuid.UUID) error {
	err := s.vaultRepo.DeleteEntry(ctx, ownerID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrVaultEntryNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления записи хранилища: %w", err)
	}

	log.Printf("[VaultService] Запись %s удалена пользователем %s", entryID, ownerID)
	return nil
}

// Reveal проверяет пароль учетной записи и возвращает расшифрованный секрет.
// Пароль проверяется до загрузки записи.
func (s *vaultService) Reveal(
	ctx context.Context,
	ownerID, entryID uuid.UUID,
	accountPassword string,
) (string, error) {
	ok, err := s.verifier.Verify(ctx, ownerID, accountPassword)
	if err != nil {
		metrics.VaultReveals.WithLabelValues(metrics.RevealError).Inc()
		return "", fmt.Errorf("ошибка проверки пароля: %w", err)
	}
	if !ok {
		metrics.VaultReveals.WithLabelValues(metrics.RevealUnauthorized).Inc()
		log.Printf("[VaultService] Неверный пароль при раскрытии записи %s пользователем %s", entryID, ownerID)
		return "", ErrUnauthorized
	}

	entry, err := s.vaultRepo.GetEntry(ctx, ownerID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrVaultEntryNotFound) {
			metrics.VaultReveals.WithLabelValues(metrics.RevealNotFound).Inc()
			return "", ErrNotFound
		}
		metrics.VaultReveals.WithLabelValues(metrics.RevealError).Inc()
		return "", fmt.Errorf("ошибка получения записи хранилища: %w", err)
	}
	if entry.OwnerID != ownerID {
		metrics.VaultReveals.WithLabelValues(metrics.RevealNotFound).Inc()
		return "", ErrNotFound
	}

	plaintext, err := s.codec.Decode(entry.SecretCipher)
	if err != nil {
		metrics.VaultReveals.WithLabelValues(metrics.RevealError).Inc()
		// Ни шифротекст, ни причина ошибки кодека в лог не попадают
		log.Printf("[VaultService] Не удалось декодировать запись %s", entryID)
		return "", ErrDecode
	}
	metrics.CodecOperations.WithLabelValues("decode").Inc()
	metrics.VaultReveals.WithLabelValues(metrics.RevealOK).Inc()

	log.Printf("[VaultService] Запись %s раскрыта пользователем %s", entryID, ownerID)
	return plaintext, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// MaskToken подставляется вместо секрета во всех списках и ответах, кроме reveal.
const MaskToken = "••••••••"

// VaultEntry представляет сохраненный секрет пользователя.
// SecretCipher содержит результат кодека и никогда не уходит клиенту.
type VaultEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OwnerID      uuid.UUID `db:"owner_id" json:"ownerId"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	SecretCipher string    `db:"secret_cipher" json:"-"`
	Secret       string    `db:"-" json:"secret"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Masked возвращает копию записи без шифротекста, с маской вместо секрета.
func (e VaultEntry) Masked() VaultEntry {
	e.SecretCipher = ""
	e.Secret = MaskToken
	return e
}

// CreateVaultEntryRequest представляет тело запроса на создание записи хранилища.
type CreateVaultEntryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Secret      string `json:"secret"`
}

// RevealRequest представляет тело запроса на раскрытие секрета.
type RevealRequest struct {
	AccountPassword string `json:"accountPassword"`
}

// RevealResponse содержит раскрытый секрет.
type RevealResponse struct {
	Plaintext string `json:"plaintext"`
}

// Package codec обратимо кодирует секреты хранилища перед записью в БД.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrDecode возвращается, если шифротекст поврежден или создан не этим кодеком.
var ErrDecode = errors.New("не удалось декодировать секрет")

// Codec кодирует и декодирует строковые секреты.
// Для любой строки s выполняется Decode(Encode(s)) == s.
type Codec interface {
	Encode(plaintext string) (string, error)
	Decode(cipherText string) (string, error)
}

// Параметры Argon2id и формата шифротекста.
const (
	KeySize       = 32
	MinSaltSize   = 8
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	versionPrefix = "v1."
)

// AESGCM шифрует секреты AES-256-GCM ключом, выведенным из парольной фразы сервера.
type AESGCM struct {
	aead cipher.AEAD
}

var _ Codec = (*AESGCM)(nil)

// DeriveKey выводит 32-байтный ключ из парольной фразы через Argon2id.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("парольная фраза хранилища не задана")
	}
	if len(salt) < MinSaltSize {
		return nil, fmt.Errorf("соль должна быть не короче %d байт", MinSaltSize)
	}
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, KeySize), nil
}

// NewAESGCM создает кодек с ключом, выведенным из passphrase и salt.
func NewAESGCM(passphrase, salt string) (*AESGCM, error) {
	key, err := DeriveKey([]byte(passphrase), []byte(salt))
	if err != nil {
		return nil, err
	}
	return NewAESGCMWithKey(key)
}

// NewAESGCMWithKey создает кодек с готовым 32-байтным ключом.
func NewAESGCMWithKey(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("ключ должен быть %d байта, получено %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания шифра: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Encode шифрует секрет. Результат: "v1." + base64url(nonce || ciphertext || tag).
func (c *AESGCM) Encode(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return versionPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode расшифровывает значение, полученное из Encode.
func (c *AESGCM) Decode(cipherText string) (string, error) {
	raw, ok := strings.CutPrefix(cipherText, versionPrefix)
	if !ok {
		return "", fmt.Errorf("%w: неизвестный формат", ErrDecode)
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: некорректный base64", ErrDecode)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: шифротекст слишком короткий", ErrDecode)
	}
	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: ошибка аутентификации", ErrDecode)
	}
	return string(plaintext), nil
}

// Base64 - плоское обратимое кодирование без ключа. Используется только для
// записей, созданных до перехода на AESGCM.
type Base64 struct{}

var _ Codec = Base64{}

// Encode кодирует секрет в стандартный base64.
func (Base64) Encode(plaintext string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

// Decode декодирует стандартный base64.
func (Base64) Decode(cipherText string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("%w: некорректный base64", ErrDecode)
	}
	return string(data), nil
}

// Fallback кодирует основным кодеком, а при декодировании значений без
// префикса версии использует устаревший.
type Fallback struct {
	Primary Codec
	Legacy  Codec
}

var _ Codec = Fallback{}

// Encode всегда использует основной кодек.
func (f Fallback) Encode(plaintext string) (string, error) {
	return f.Primary.Encode(plaintext)
}

// Decode выбирает кодек по префиксу версии.
func (f Fallback) Decode(cipherText string) (string, error) {
	if strings.HasPrefix(cipherText, versionPrefix) {
		return f.Primary.Decode(cipherText)
	}
	return f.Legacy.Decode(cipherText)
}

// Режимы кодека в конфигурации.
const (
	ModeAESGCM = "aesgcm"
	ModeBase64 = "base64"
)

// New собирает кодек по режиму из конфигурации.
func New(mode, passphrase, salt string, legacyDecode bool) (Codec, error) {
	switch mode {
	case ModeAESGCM, "":
		primary, err := NewAESGCM(passphrase, salt)
		if err != nil {
			return nil, err
		}
		if legacyDecode {
			return Fallback{Primary: primary, Legacy: Base64{}}, nil
		}
		return primary, nil
	case ModeBase64:
		return Base64{}, nil
	default:
		return nil, fmt.Errorf("неизвестный режим кодека: %q", mode)
	}
}

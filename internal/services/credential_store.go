package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/repository"
)

// CredentialStore хранит учетные записи и проверяет пароли.
type CredentialStore interface {
	Register(ctx context.Context, in RegisterInput) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// Verify сообщает, совпадает ли пароль с паролем учетной записи.
	// Несуществующий пользователь дает false без ошибки.
	Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error)
}

// Verifier - часть CredentialStore, нужная хранилищу секретов.
type Verifier interface {
	Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error)
}

// Параметры токенов по умолчанию.
const (
	BcryptCost      = 10
	DefaultTokenTTL = 7 * 24 * time.Hour
	DefaultIssuer   = "taskkeeper"
)

// TokenConfig задает подпись и срок жизни JWT.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// jwtClaims - полезная нагрузка токена.
type jwtClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// dummyHash сравнивается с паролем, когда пользователь не найден, чтобы время ответа не выдавало его отсутствие.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("taskkeeper-dummy-password"), BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt: %v", err))
	}
	return h
})

var _ CredentialStore = (*credentialStore)(nil)

type credentialStore struct {
	userRepo repository.UserRepository
	tokens   TokenConfig
	now      func() time.Time
}

// NewCredentialStore создает хранилище учетных записей.
// Нулевые TTL и Issuer заменяются значениями по умолчанию, nil clock - на time.Now.
func NewCredentialStore(userRepo repository.UserRepository, tokens TokenConfig, clock func() time.Time) CredentialStore {
	if tokens.TTL <= 0 {
		tokens.TTL = DefaultTokenTTL
	}
	if tokens.Issuer == "" {
		tokens.Issuer = DefaultIssuer
	}
	if clock == nil {
		clock = time.Now
	}
	return &credentialStore{userRepo: userRepo, tokens: tokens, now: clock}
}

// Register создает учетную запись и сразу выдает токен.
func (s *credentialStore) Register(ctx context.Context, in RegisterInput) (*models.AuthResponse, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		log.Printf("[CredentialStore] Ошибка хеширования пароля для '%s': %v", in.Email, err)
		return nil, errors.New("внутренняя ошибка сервера при хешировании пароля")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    s.now().UTC(),
	}

	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			log.Printf("[CredentialStore] Попытка регистрации с занятым email: %s", in.Email)
			return nil, ErrEmailTaken
		}
		log.Printf("[CredentialStore] Ошибка репозитория при регистрации '%s': %v", in.Email, err)
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	log.Printf("[CredentialStore] Пользователь '%s' успешно зарегистрирован", in.Email)
	return s.authResponse(user)
}

// Login проверяет email и пароль и выдает токен.
func (s *credentialStore) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = RegisterInput{Email: email}.Normalize().Email

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			log.Printf("[CredentialStore] Попытка входа несуществующего пользователя: %s", email)
			return nil, ErrUnauthorized
		}
		log.Printf("[CredentialStore] Ошибка репозитория при поиске '%s': %v", email, err)
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[CredentialStore] Неверный пароль для пользователя: %s", email)
		return nil, ErrUnauthorized
	}

	log.Printf("[CredentialStore] Пользователь '%s' успешно аутентифицирован", email)
	return s.authResponse(user)
}

// Me возвращает профиль пользователя.
func (s *credentialStore) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return user, nil
}

func (s *credentialStore) Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return false, nil
		}
		log.Printf("[CredentialStore] Ошибка репозитория при проверке пароля пользователя %s: %v", userID, err)
		return false, fmt.Errorf("ошибка проверки пароля: %w", err)
	}

	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil, nil
}

func (s *credentialStore) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.generateJWT(user.ID)
	if err != nil {
		log.Printf("[CredentialStore] Ошибка генерации JWT для '%s': %v", user.Email, err)
		return nil, errors.New("внутренняя ошибка сервера при генерации токена")
	}
	return &models.AuthResponse{User: user, Token: token}, nil
}

// generateJWT создает и подписывает JWT токен для пользователя.
func (s *credentialStore) generateJWT(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwtClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokens.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.tokens.Issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.tokens.Secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return signedToken, nil
}

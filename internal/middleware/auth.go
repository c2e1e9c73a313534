package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Тип для ключа контекста.
type contextKey string

// UserIDKey - ключ для хранения ID пользователя в контексте.
const UserIDKey contextKey = "userID"

// jwtClaims должна совпадать с полезной нагрузкой, которую выдает CredentialStore.
type jwtClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator возвращает middleware, проверяющее bearer JWT, подписанный secret.
// Если issuer не пуст, он тоже проверяется.
func Authenticator(secret []byte, issuer string) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Println("[AuthMiddleware] Заголовок Authorization отсутствует")
				writeJSONError(w, "Требуется аутентификация", http.StatusUnauthorized)
				return
			}

			// Проверяем формат "Bearer token"
			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") ||
				tokenString == "" || strings.Contains(tokenString, " ") {
				log.Println("[AuthMiddleware] Неверный формат заголовка Authorization")
				writeJSONError(w, "Неверный формат токена", http.StatusUnauthorized)
				return
			}

			claims := &jwtClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				log.Printf("[AuthMiddleware] Ошибка парсинга/валидации токена: %v", err)
				writeJSONError(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				log.Printf("[AuthMiddleware] Некорректный user_id в токене: %v", err)
				writeJSONError(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext извлекает UserID из контекста запроса.
// Возвращает ID пользователя и true, если ID найден, иначе uuid.Nil и false.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// writeJSONError пишет ошибку в формате {"message": ...}.
func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		log.Printf("[Middleware] Ошибка записи ответа: %v", fmt.Errorf("encode: %w", err))
	}
}

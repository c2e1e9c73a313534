package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maynagashev/taskkeeper/internal/codec"
)

// Кастомные ошибки сервисов. Обработчики переводят их в HTTP-статусы один к одному.
var (
	// ErrUnauthorized не различает неизвестного пользователя и неверный пароль.
	ErrUnauthorized = errors.New("неверный email или пароль")
	// ErrNotFound не различает отсутствующую и чужую запись.
	ErrNotFound   = errors.New("запись не найдена")
	ErrEmailTaken = errors.New("пользователь с таким email уже существует")
	// ErrDecode оборачивает codec.ErrDecode.
	ErrDecode = fmt.Errorf("секрет поврежден: %w", codec.ErrDecode)
)

// ValidationError содержит ошибки по полям входных данных.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "ошибка валидации: " + strings.Join(parts, "; ")
}

// Add запоминает первую ошибку для поля.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err возвращает nil, если ошибок нет.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

package services

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maynagashev/taskkeeper/internal/models"
)

// Ограничения входных данных.
const (
	MinPasswordLength = 6
	MaxTitleLength    = 200
	MaxTextLength     = 10000
	MaxSecretLength   = 4096
)

// Сообщения об ошибках валидации.
const (
	msgRequired = "обязательное поле"
	msgTooLong  = "слишком длинное значение (максимум %d символов)"
)

// RegisterInput содержит данные для регистрации.
type RegisterInput models.RegisterRequest

// Normalize приводит email к нижнему регистру и убирает пробелы вокруг имен.
func (in RegisterInput) Normalize() RegisterInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}

// Validate проверяет данные регистрации.
func (in RegisterInput) Validate() error {
	v := &ValidationError{}
	validateEmail(v, in.Email)
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		v.Add("password", fmt.Sprintf("пароль должен быть не короче %d символов", MinPasswordLength))
	}
	checkText(v, "firstName", in.FirstName, MaxTitleLength, true)
	checkText(v, "lastName", in.LastName, MaxTitleLength, true)
	return v.Err()
}

// CreateVaultEntryInput содержит данные новой записи хранилища.
type CreateVaultEntryInput models.CreateVaultEntryRequest

// Validate проверяет данные записи хранилища.
func (in CreateVaultEntryInput) Validate() error {
	v := &ValidationError{}
	checkText(v, "title", in.Title, MaxTitleLength, true)
	checkText(v, "description", in.Description, MaxTextLength, false)
	checkText(v, "secret", in.Secret, MaxSecretLength, true)
	return v.Err()
}

// CreateNoteInput содержит данные новой заметки.
type CreateNoteInput models.CreateNoteRequest

// Validate проверяет данные заметки.
func (in CreateNoteInput) Validate() error {
	v := &ValidationError{}
	checkText(v, "title", in.Title, MaxTitleLength, true)
	checkText(v, "content", in.Content, MaxTextLength, false)
	return v.Err()
}

// NoteUpdate содержит частичное изменение заметки.
type NoteUpdate models.UpdateNoteRequest

// Validate проверяет только переданные поля.
func (in NoteUpdate) Validate() error {
	v := &ValidationError{}
	if in.Title != nil {
		checkText(v, "title", *in.Title, MaxTitleLength, true)
	}
	if in.Content != nil {
		checkText(v, "content", *in.Content, MaxTextLength, false)
	}
	return v.Err()
}

// TaskInput используется и при создании, и при частичном обновлении задачи.
type TaskInput models.TaskRequest

// Validate проверяет переданные поля. При создании (creating) заголовок обязателен.
func (in TaskInput) Validate(creating bool) error {
	v := &ValidationError{}
	switch {
	case in.Title != nil:
		checkText(v, "title", *in.Title, MaxTitleLength, true)
	case creating:
		v.Add("title", msgRequired)
	}
	if in.Description != nil {
		checkText(v, "description", *in.Description, MaxTextLength, false)
	}
	if in.DueTime != nil && *in.DueTime != "" {
		if _, err := time.Parse("15:04", *in.DueTime); err != nil {
			v.Add("dueTime", "ожидается время в формате ЧЧ:ММ")
		}
	}
	checkEnum(v, "priority", in.Priority, models.PriorityLow, models.PriorityMedium, models.PriorityHigh)
	checkEnum(v, "category", in.Category,
		models.CategoryAssignment, models.CategoryExam, models.CategoryProject, models.CategoryPersonal)
	checkEnum(v, "completionStatus", in.CompletionStatus,
		models.StatusPending, models.StatusPartial, models.StatusHalf, models.StatusComplete)
	return v.Err()
}

func validateEmail(v *ValidationError, email string) {
	if email == "" {
		v.Add("email", msgRequired)
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add("email", "некорректный email")
	}
}

func checkText(v *ValidationError, field, value string, maxLen int, required bool) {
	if required && strings.TrimSpace(value) == "" {
		v.Add(field, msgRequired)
		return
	}
	if utf8.RuneCountInString(value) > maxLen {
		v.Add(field, fmt.Sprintf(msgTooLong, maxLen))
	}
}

func checkEnum(v *ValidationError, field string, value *string, allowed ...string) {
	if value == nil {
		return
	}
	for _, a := range allowed {
		if *value == a {
			return
		}
	}
	v.Add(field, "допустимые значения: "+strings.Join(allowed, ", "))
}

package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/GoArmGo/BlogApp/internal/domain"
)

// inputValidator проверяет входные структуры usecase-слоя по тегам validate.
// Имена полей в ошибках берутся из json-тегов.
type inputValidator struct {
	v *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// maxbytes ограничивает длину строки в байтах, а не в символах
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &inputValidator{v: v}
}

// Struct возвращает *domain.ValidationError со списком ошибок по полям.
func (iv *inputValidator) Struct(s any) error {
	err := iv.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return domain.NewValidationError(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "uuid":
		return "must be a valid id"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// requireNonBlank проверяет поле патча: присутствующее поле не может быть пустым.
func requireNonBlank(field string, value *string) *domain.FieldError {
	if value == nil || strings.TrimSpace(*value) != "" {
		return nil
	}
	return &domain.FieldError{Field: field, Message: "must not be empty"}
}

package helper

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// pakai nama json untuk field error
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if s, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(s) != ""
		}
		return false
	})
	_ = Validate.RegisterTranslation("notblank", Translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string { return fe.Field() + " cannot be blank" },
	)
}

// ValidationFields: validator.ValidationErrors → map field → pesan (en).
func ValidationFields(err error) map[string][]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string][]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = append(out[fe.Field()], fe.Translate(Translator))
	}
	return out
}

// ValidationError: render error validasi (422). Error non-validator → 400.
func ValidationError(c *fiber.Ctx, err error) error {
	if fields := ValidationFields(err); fields != nil {
		return JsonValidationError(c, fields)
	}
	return JsonError(c, fiber.StatusBadRequest, "Invalid input")
}

// ParseAndValidate: BodyParser + Validate.Struct dalam satu langkah.
// Return (true, nil) jika lolos; kalau gagal response sudah ditulis.
func ParseAndValidate(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := Validate.Struct(out); err != nil {
		return false, ValidationError(c, err)
	}
	return true, nil
}

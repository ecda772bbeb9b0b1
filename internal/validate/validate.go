// Package validate wraps go-playground/validator with English messages keyed by JSON field names.
package validate

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
)

var (
	// identifiers used in URLs and asset paths: class, subject, topic, ids
	slugTag   = "slug"
	slugText  = "{0} may only contain letters, digits, spaces, '-', '_' and '.'"
	slugRegex = regexp.MustCompile(`^[\p{L}\p{N} _.\-]+$`)

	requiredText = "this field is required"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(slugTag, func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	registerTranslation(slugTag, slugText, false)
	registerTranslation("required", requiredText, true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and converts validator errors into an *apperr.ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	flds := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		flds = append(flds, apperr.FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
	}
	return apperr.NewValidationError(errors.New("invalid request"), flds...)
}

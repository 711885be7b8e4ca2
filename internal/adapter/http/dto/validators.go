package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	pinRe     = regexp.MustCompile(`^[0-9]{4}$`)
	addressRe = regexp.MustCompile(`^[a-zA-Z0-9]{20,64}$`)
	expiryRe  = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("wallet_pin", validatePin)
		_ = v.RegisterValidation("wallet_address", validateAddress)
		_ = v.RegisterValidation("card_expiry", validateExpiry)
	}
}

// validatePin requires exactly four digits.
func validatePin(fl validator.FieldLevel) bool {
	return pinRe.MatchString(fl.Field().String())
}

// validateAddress allows alphanumeric destination addresses.
func validateAddress(fl validator.FieldLevel) bool {
	return addressRe.MatchString(fl.Field().String())
}

// validateExpiry requires MM/YY. Whether the date lies in the future is
// checked by the purchase service.
func validateExpiry(fl validator.FieldLevel) bool {
	return expiryRe.MatchString(fl.Field().String())
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string and nested structs) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Struct:
			sanitizeFields(f)
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

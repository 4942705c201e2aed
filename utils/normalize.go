package utils

import (
	"reflect"
	"strings"
)

// NormalizePtrDTO trims the non-nil *string fields of a patch DTO. Nil fields
// stay nil so they are still skipped by UpdatesFromPtrDTO.
func NormalizePtrDTO(dto any) {
	eachField(dto, func(f reflect.Value) {
		if f.Kind() == reflect.Ptr && !f.IsNil() {
			trim(f.Elem())
		}
	})
}

// NormalizeDTO trims the string fields of a create DTO.
func NormalizeDTO(dto any) {
	eachField(dto, trim)
}

// NormalizeEmail strips all whitespace and lowercases the address, so lookups
// and the unique index agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.Join(strings.Fields(email), ""))
}

func eachField(dto any, fn func(reflect.Value)) {
	s, ok := structValue(dto)
	if !ok {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		fn(s.Field(i))
	}
}

func trim(v reflect.Value) {
	if v.Kind() == reflect.String && v.CanSet() {
		v.SetString(strings.TrimSpace(v.String()))
	}
}

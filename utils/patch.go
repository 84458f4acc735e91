package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// UpdatesFromPtrDTO collects the non-nil pointer fields of a partial-update
// DTO into a GORM updates map. Keys come from the `json` tag up to the first
// comma; renames translates a json key whose column is named differently,
// e.g. {"store_product": "is_store_product"}.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	updates := make(map[string]any)
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr {
		return updates
	}
	s := v.Elem()
	if s.Kind() != reflect.Struct {
		return updates
	}
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := s.Field(i)
		if value.Kind() != reflect.Ptr || value.IsNil() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if alt, ok := renames[name]; ok && alt != "" {
			name = alt
		}
		updates[name] = value.Elem().Interface()
	}
	return updates
}

// ParseIntDefault reads a non-negative integer query parameter, falling back
// to def when absent or malformed. Used for page/limit pagination values.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}

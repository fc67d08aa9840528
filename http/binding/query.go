package binding

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	apperrors "github.com/leeforge/plugincatalog/errors"
	"github.com/leeforge/plugincatalog/validation"
)

// QueryUnmarshaler lets a field type parse its own query value.
type QueryUnmarshaler interface {
	UnmarshalQuery(string) error
}

var unmarshalerType = reflect.TypeOf((*QueryUnmarshaler)(nil)).Elem()

// Query binds r's query string into the struct pointed to by v, applying
// `default` tags first and `validate` tags last. Field names come from the
// `query` tag, then the `json` tag, then the lowercased field name. Slices
// accept both repeated keys and comma separated values.
func Query(r *http.Request, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return apperrors.NewInternal("query target must be a non-nil struct pointer")
	}

	if err := defaults.Set(v); err != nil {
		return apperrors.NewInternal(err.Error())
	}
	if err := parseStruct(r.URL.Query(), rv.Elem()); err != nil {
		return err
	}
	return validation.Struct(v)
}

func parseStruct(values url.Values, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}
		name := queryName(rt.Field(i))
		if name == "-" {
			continue
		}
		raw, ok := values[name]
		if !ok || len(raw) == 0 {
			continue
		}
		if err := setField(field, raw); err != nil {
			return apperrors.NewValidation(fmt.Sprintf("invalid query parameter %s: %v", name, err)).
				WithDetail("field", name)
		}
	}
	return nil
}

func queryName(f reflect.StructField) string {
	for _, tag := range []string{"query", "json"} {
		if v := f.Tag.Get(tag); v != "" {
			return strings.Split(v, ",")[0]
		}
	}
	return strings.ToLower(f.Name)
}

func setField(field reflect.Value, raw []string) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setField(field.Elem(), raw)
	}

	if field.CanAddr() && field.Addr().Type().Implements(unmarshalerType) {
		return field.Addr().Interface().(QueryUnmarshaler).UnmarshalQuery(raw[0])
	}

	if field.Kind() == reflect.Slice {
		var parts []string
		for _, r := range raw {
			for _, p := range strings.Split(r, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
		}
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := setScalar(slice.Index(i), p); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	return setScalar(field, raw[0])
}

func setScalar(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", value)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", value)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("not an unsigned integer: %q", value)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", value)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

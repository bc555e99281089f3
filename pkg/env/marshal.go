package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var durationType = reflect.TypeOf(time.Duration(0))

type options struct {
	revealSecrets bool
}

type Option func(*options)

// RevealSecrets writes `envSecret:"true"` fields in clear text.
func RevealSecrets() Option {
	return func(o *options) { o.revealSecrets = true }
}

// Values collects the non-zero `env`-tagged fields of the struct pointed to by c,
// keyed by variable name. Secret fields are masked unless RevealSecrets is given.
func Values(c any, opts ...Option) (map[string]string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("env: expected pointer to struct, got %T", c)
	}
	v = v.Elem()
	t := v.Type()

	values := make(map[string]string)
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if key == "" || !field.IsExported() {
			continue
		}

		val := v.Field(i)
		if val.IsZero() {
			continue
		}

		s := formatValue(val)
		if field.Tag.Get("envSecret") == "true" && !o.revealSecrets {
			s = mask(s)
		}
		values[key] = s
	}
	return values, nil
}

// MarshalEnv renders the fields of one or more config structs as sorted dotenv
// lines.
func MarshalEnv(configs []any, opts ...Option) (string, error) {
	all := make(map[string]string)
	for _, c := range configs {
		values, err := Values(c, opts...)
		if err != nil {
			return "", err
		}
		for k, v := range values {
			all[k] = v
		}
	}
	if len(all) == 0 {
		return "", nil
	}

	out, err := godotenv.Marshal(all)
	if err != nil {
		return "", fmt.Errorf("env: %w", err)
	}
	return out + "\n", nil
}

func formatValue(v reflect.Value) string {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprint(v.Interface())
	}
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

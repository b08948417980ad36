package config

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// field is one leaf setting of Config, addressed by its dot-key
// ("backend.base_url"). Fields tagged secret:"true" are masked when listed.
type field struct {
	key    string
	index  []int
	secret bool
}

var fields = collectFields(reflect.TypeOf(Config{}), "", nil)

func collectFields(t reflect.Type, prefix string, index []int) []field {
	var out []field
	for i := range t.NumField() {
		sf := t.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		idx := append(slices.Clone(index), i)
		if sf.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(sf.Type, prefix+name+".", idx)...)
			continue
		}
		out = append(out, field{key: prefix + name, index: idx, secret: sf.Tag.Get("secret") == "true"})
	}
	return out
}

func lookupField(key string) (field, bool) {
	i := slices.IndexFunc(fields, func(f field) bool { return f.key == key })
	if i < 0 {
		return field{}, false
	}
	return fields[i], true
}

// Keys returns every settable dot-key in declaration order.
func Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

// IsSecretKey reports whether key names a secret setting.
func IsSecretKey(key string) bool {
	f, ok := lookupField(key)
	return ok && f.secret
}

func (c *Config) fieldValue(f field) reflect.Value {
	return reflect.ValueOf(c).Elem().FieldByIndex(f.index)
}

// Get returns the value stored under a dot-key.
func (c *Config) Get(key string) (any, error) {
	f, ok := lookupField(key)
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return c.fieldValue(f).Interface(), nil
}

// Set parses value according to the setting's type and stores it.
func (c *Config) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	v := c.fieldValue(f)
	switch v.Kind() {
	case reflect.String:
		v.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		v.SetInt(int64(n))
	case reflect.Float64:
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number, got %q", key, value)
		}
		v.SetFloat(n)
	default:
		return fmt.Errorf("%s: unsupported setting type %s", key, v.Kind())
	}
	return nil
}

// Values returns every setting keyed by dot-key. Secrets are masked unless
// reveal is set.
func (c *Config) Values(reveal bool) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v := c.fieldValue(f).Interface()
		if s, ok := v.(string); ok && f.secret && !reveal {
			v = maskSecret(s)
		}
		out[f.key] = v
	}
	return out
}

// maskSecret keeps the last four characters: "gs-abcdef" -> "***cdef".
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}

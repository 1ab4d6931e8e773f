// Package config loads application options with the precedence
// CLI flags > DESKSTREAM_* environment variables > TOML config file.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to the env tag of every option field.
const EnvPrefix = "DESKSTREAM_"

// Load fills opts from the TOML file named by its Config field and from
// environment variables. Fields whose CLI flag was explicitly set are left
// untouched so flags keep the highest precedence. opts must be a pointer
// to a struct; flags may be nil.
func Load(opts any, flags *pflag.FlagSet) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changed := make(map[string]bool)
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			changed[f.Name] = true
		})
	}

	var file map[string]any
	if path := configPath(v, t); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tags := t.Field(i)

		if changed[flagName(tags.Name)] {
			continue
		}

		if key := tags.Tag.Get("toml"); key != "" && file != nil {
			if value := lookupKey(file, key); value != nil {
				assign(field, value)
			}
		}
		if key := tags.Tag.Get("env"); key != "" {
			if value := os.Getenv(EnvPrefix + key); value != "" {
				assignString(field, value)
			}
		}
	}
	return nil
}

// configPath returns the value of the struct's Config field, if any.
func configPath(v reflect.Value, t reflect.Type) string {
	for i := 0; i < v.NumField(); i++ {
		if t.Field(i).Name == "Config" {
			return v.Field(i).String()
		}
	}
	return ""
}

// flagName converts a field name to its kebab-case CLI flag.
// "GracePeriod" becomes "grace-period".
func flagName(field string) string {
	var out []rune
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			out = append(out, '-')
		}
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

// lookupKey resolves a dotted key like "ui.listen" in nested TOML tables.
func lookupKey(data map[string]any, key string) any {
	current := data
	for {
		dot := -1
		for i, r := range key {
			if r == '.' {
				dot = i
				break
			}
		}
		if dot == -1 {
			return current[key]
		}
		next, ok := current[key[:dot]].(map[string]any)
		if !ok {
			return nil
		}
		current = next
		key = key[dot+1:]
	}
}

func assign(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		}
	}
}

func assignString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}
	}
}

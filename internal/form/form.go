// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package form validates decoded JSON objects field by field. Each field
// reports only its first failing rule.
package form

import (
	"math"
	"net/mail"
	"slices"
	"sort"
	"strings"
	"time"
)

// DateLayout is the civil date format accepted by Date.
const DateLayout = "2006-01-02"

// Rule is a single constraint on a field value.
type Rule struct {
	Message string
	Check   func(v any) bool

	// typed rules need a non-string JSON value, so an empty string in an
	// optional field is still checked against them.
	typed bool
}

// Field is a named, ordered list of rules.
type Field struct {
	Name     string
	Rules    []Rule
	Optional bool
}

// Schema is the ordered set of fields a form accepts.
type Schema []Field

// Errors maps field name to its first violated rule message.
type Errors map[string]string

func (e Errors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Required declares a field that must be present.
func Required(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

// Optional declares a field that may be omitted, null or empty.
func Optional(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules, Optional: true}
}

// Validate checks values against the schema. In partial mode only the
// fields present in values are checked, which is how patches are validated.
// It returns nil or an Errors value.
func (s Schema) Validate(values map[string]any, partial bool) error {
	errs := Errors{}
	for _, f := range s {
		v, present := values[f.Name]
		if partial && !present {
			continue
		}
		if v == nil || v == "" {
			if f.Optional && (v == nil || !f.typed()) {
				continue
			}
			if !present || v == nil {
				errs[f.Name] = f.missingMessage()
				continue
			}
		}
		for _, r := range f.Rules {
			if !r.Check(v) {
				errs[f.Name] = r.Message
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f Field) typed() bool {
	for _, r := range f.Rules {
		if r.typed {
			return true
		}
	}
	return false
}

func (f Field) missingMessage() string {
	if len(f.Rules) > 0 {
		return f.Rules[0].Message
	}
	return "Required"
}

// Fields lists the schema's field names.
func (s Schema) Fields() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// String accepts any string.
func String() Rule {
	return Rule{Message: "Expected string", Check: func(v any) bool {
		_, ok := v.(string)
		return ok
	}}
}

// MinLen requires a string of at least n characters after trimming.
func MinLen(n int, msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		return ok && len([]rune(strings.TrimSpace(s))) >= n
	}}
}

// Min requires a number no smaller than n.
func Min(n float64, msg string) Rule {
	return Rule{Message: msg, typed: true, Check: func(v any) bool {
		f, ok := number(v)
		return ok && f >= n
	}}
}

// Max requires a number no larger than n.
func Max(n float64, msg string) Rule {
	return Rule{Message: msg, typed: true, Check: func(v any) bool {
		f, ok := number(v)
		return ok && f <= n
	}}
}

// Integer requires a whole number.
func Integer(msg string) Rule {
	return Rule{Message: msg, typed: true, Check: func(v any) bool {
		f, ok := number(v)
		return ok && f == math.Trunc(f)
	}}
}

// Email requires a bare address such as jane@example.com.
func Email(msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		addr, err := mail.ParseAddress(s)
		return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
	}}
}

// OneOf requires a string from the allowed set.
func OneOf(allowed []string, msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		return ok && slices.Contains(allowed, s)
	}}
}

// Date requires a YYYY-MM-DD calendar date.
func Date(msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(DateLayout, s)
		return err == nil
	}}
}

// Bool requires a JSON boolean.
func Bool(msg string) Rule {
	return Rule{Message: msg, typed: true, Check: func(v any) bool {
		_, ok := v.(bool)
		return ok
	}}
}

// Strings requires a JSON array of strings.
func Strings(msg string) Rule {
	return Rule{Message: msg, typed: true, Check: func(v any) bool {
		switch items := v.(type) {
		case []string:
			return true
		case []any:
			for _, it := range items {
				if _, ok := it.(string); !ok {
					return false
				}
			}
			return true
		default:
			return false
		}
	}}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

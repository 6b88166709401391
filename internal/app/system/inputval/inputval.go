// Package inputval validates form input structs using `validate` struct
// tags. Supported rules for string fields: required, min=N, max=N, email.
// The optional `label` tag names the field in error messages.
//
// Example:
//
//	type createGroupInput struct {
//		Name string `validate:"required,max=100" label:"Name"`
//	}
//
//	if result := inputval.Validate(input); result.HasErrors() {
//		// result.First() is a user-facing message
//	}
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/huddleapp/huddle/internal/app/system/emailutil"
)

// Result collects validation failures in field order.
type Result struct {
	Errors []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "" if none.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// Validate checks every tagged string field of the struct v.
// Non-struct values and non-string fields are ignored.
func Validate(v interface{}) Result {
	var res Result

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		val := rv.Field(i).String()

		for _, rule := range strings.Split(tag, ",") {
			if msg := check(rule, label, val); msg != "" {
				res.Errors = append(res.Errors, msg)
				break // one message per field is enough
			}
		}
	}
	return res
}

func check(rule, label, val string) string {
	switch {
	case rule == "required":
		if strings.TrimSpace(val) == "" {
			return fmt.Sprintf("%s is required.", label)
		}
	case rule == "email":
		if val != "" && !emailutil.ValidSyntax(val) {
			return fmt.Sprintf("%s is not a valid email address.", label)
		}
	case strings.HasPrefix(rule, "max="):
		if n, err := strconv.Atoi(rule[len("max="):]); err == nil && len(val) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case strings.HasPrefix(rule, "min="):
		if n, err := strconv.Atoi(rule[len("min="):]); err == nil && val != "" && len(val) < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, n)
		}
	}
	return ""
}

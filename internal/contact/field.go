// Package contact implements the contact form: per-field validation,
// the character counter, and the submit pipeline with its pluggable
// delivery strategies.
package contact

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind is the semantic input type of a field.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTextarea Kind = "textarea"
)

// State is the visual validity state of a field.
type State string

const (
	StateNone    State = ""
	StateSuccess State = "success"
	StateError   State = "error"
)

const (
	nameMinLength    = 2
	messageMinLength = 10
	messageMaxLength = 1000
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// Field is one named input. Value holds the raw input; validation always
// works on its trimmed form.
type Field struct {
	Name      string
	Kind      Kind
	Label     string
	Required  bool
	MaxLength int
	Value     string
	State     State
	Error     string
}

// Trimmed returns the value with surrounding whitespace removed.
func (f Field) Trimmed() string {
	return strings.TrimSpace(f.Value)
}

// DefaultFields returns the contact form's fields in display order.
func DefaultFields() []Field {
	return []Field{
		{Name: "name", Kind: KindText, Label: "Name", Required: true},
		{Name: "email", Kind: KindEmail, Label: "Email", Required: true},
		{Name: "subject", Kind: KindText, Label: "Subject"},
		{Name: "message", Kind: KindTextarea, Label: "Message", Required: true, MaxLength: messageMaxLength},
	}
}

// Label returns the human label used in required-field errors.
func Label(name string) string {
	switch name {
	case "name":
		return "Name"
	case "email":
		return "Email"
	case "subject":
		return "Subject"
	case "message":
		return "Message"
	}
	return name
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks a field against the form rules. Rules run in order and a
// later failing rule replaces the message of an earlier one.
func Validate(f Field) (bool, string) {
	value := f.Trimmed()
	valid := true
	msg := ""

	if f.Required && value == "" {
		valid = false
		msg = fmt.Sprintf("%s is required", Label(f.Name))
	}

	if f.Kind == KindEmail && value != "" && !IsValidEmail(value) {
		valid = false
		msg = "Please enter a valid email address"
	}

	if f.Name == "name" && value != "" {
		if !namePattern.MatchString(value) {
			valid = false
			msg = "Name should only contain letters and spaces"
		}
		if utf8.RuneCountInString(value) < nameMinLength {
			valid = false
			msg = "Name should be at least 2 characters long"
		}
	}

	if f.Name == "message" && value != "" {
		n := utf8.RuneCountInString(value)
		if n < messageMinLength {
			valid = false
			msg = "Message should be at least 10 characters long"
		}
		if n > messageMaxLength {
			valid = false
			msg = "Message should not exceed 1000 characters"
		}
	}

	return valid, msg
}

// Apply validates f and returns it with State and Error updated.
func Apply(f Field) (Field, bool) {
	ok, msg := Validate(f)
	if ok {
		f.State = StateSuccess
		f.Error = ""
	} else {
		f.State = StateError
		f.Error = msg
	}
	return f, ok
}

// ValidatePayload checks a submitted mapping against fields and returns the
// error message per failing field name. An empty map means valid.
func ValidatePayload(fields []Field, p Payload) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		f.Value = p[f.Name]
		if ok, msg := Validate(f); !ok {
			errs[f.Name] = msg
		}
	}
	return errs
}

// Counter is the live character count shown under a textarea.
type Counter struct {
	Max    int
	Length int
}

// NewCounter returns a counter for limit, defaulting to 1000.
func NewCounter(limit int) Counter {
	if limit <= 0 {
		limit = messageMaxLength
	}
	return Counter{Max: limit}
}

// Update sets the count from the raw textarea value.
func (c Counter) Update(value string) Counter {
	c.Length = utf8.RuneCountInString(value)
	return c
}

// Warning reports whether the count is past 90% of the limit.
func (c Counter) Warning() bool {
	return float64(c.Length) > float64(c.Max)*0.9
}

func (c Counter) String() string {
	return fmt.Sprintf("%d / %d characters", c.Length, c.Max)
}

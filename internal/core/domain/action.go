package domain

import "net/url"

// FormData is raw submitted field data. When a field is submitted more than
// once the last value wins.
type FormData map[string]string

func FormDataFromValues(values url.Values) FormData {
	form := make(FormData, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			form[key] = vals[len(vals)-1]
		}
	}
	return form
}

// FieldErrors maps a form field name to its human-readable messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// ActionState is what a form action hands back to the caller. A successful
// action carries only Redirect; a failed one carries Message and, for
// validation failures, Errors.
type ActionState struct {
	Errors   FieldErrors `json:"errors,omitempty"`
	Message  string      `json:"message,omitempty"`
	Redirect string      `json:"-"`

	// Err is the classified cause, marked with ierr.ErrValidation or ierr.ErrDatabase.
	Err error `json:"-"`
}

func (s ActionState) OK() bool {
	return s.Err == nil && s.Redirect != ""
}

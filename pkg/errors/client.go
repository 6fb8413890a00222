// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import "errors"

// Validation represents a validation error in the application.
type Validation struct {
	base
}

// Error returns the error message for Validation.
func (v Validation) Error() string {
	return v.error()
}

// NewValidation creates a new Validation error with the provided message.
func NewValidation(message string, err ...error) Validation {
	return Validation{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// InvalidFields is a validation error that carries the violations per field path.
type InvalidFields struct {
	base
	fields map[string][]string
}

// Error returns the error message for InvalidFields.
func (i InvalidFields) Error() string {
	return i.error()
}

// Fields returns a copy of the field path to violations mapping.
func (i InvalidFields) Fields() map[string][]string {
	out := make(map[string][]string, len(i.fields))
	for path, violations := range i.fields {
		out[path] = append([]string(nil), violations...)
	}
	return out
}

// NewInvalidFields creates a new InvalidFields error.
func NewInvalidFields(message string, fields map[string][]string, err ...error) InvalidFields {
	return InvalidFields{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
		fields: fields,
	}
}

// NotFound represents a not found error in the application.
type NotFound struct {
	base
}

// Error returns the error message for NotFound.
func (n NotFound) Error() string {
	return n.error()
}

// NewNotFound creates a new NotFound error with the provided message.
func NewNotFound(message string, err ...error) NotFound {
	return NotFound{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// Conflict represents a conflict error in the application.
type Conflict struct {
	base
}

// Error returns the error message for Conflict.
func (c Conflict) Error() string {
	return c.error()
}

// NewConflict creates a new Conflict error with the provided message.
func NewConflict(message string, err ...error) Conflict {
	return Conflict{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// MethodNotAllowed is returned when an operation is not permitted in the
// current state of the resource.
type MethodNotAllowed struct {
	base
}

// Error returns the error message for MethodNotAllowed.
func (m MethodNotAllowed) Error() string {
	return m.error()
}

// NewMethodNotAllowed creates a new MethodNotAllowed error with the provided message.
func NewMethodNotAllowed(message string, err ...error) MethodNotAllowed {
	return MethodNotAllowed{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// Unauthorized represents an authentication failure.
type Unauthorized struct {
	base
}

// Error returns the error message for Unauthorized.
func (u Unauthorized) Error() string {
	return u.error()
}

// NewUnauthorized creates a new Unauthorized error with the provided message.
func NewUnauthorized(message string, err ...error) Unauthorized {
	return Unauthorized{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

// Forbidden represents an authorization failure.
type Forbidden struct {
	base
}

// Error returns the error message for Forbidden.
func (f Forbidden) Error() string {
	return f.error()
}

// NewForbidden creates a new Forbidden error with the provided message.
func NewForbidden(message string, err ...error) Forbidden {
	return Forbidden{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}

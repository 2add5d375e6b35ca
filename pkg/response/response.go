// Package response defines the uniform envelope returned by every
// medical record operation.
package response

import "net/http"

// Envelope wraps an operation result. Code carries the HTTP status the
// transport layer should answer with.
type Envelope[T any] struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Data      T       `json:"data"`
	Code      int     `json:"code"`
	TotalRows *int    `json:"totalRows"`
	Exception *string `json:"exception"`
}

// OK builds a successful envelope with a 200 code.
func OK[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Success: true, Message: message, Data: data, Code: http.StatusOK}
}

// Page builds a successful list envelope carrying the pre-pagination total.
func Page[T any](message string, data T, total int) Envelope[T] {
	env := OK(message, data)
	env.TotalRows = &total
	return env
}

// Fail builds an unsuccessful envelope with the given code.
func Fail[T any](code int, message string) Envelope[T] {
	return Envelope[T]{Success: false, Message: message, Code: code}
}

// WithData sets the payload. Used by failures that still carry a value,
// such as a delete answering data=false.
func (e Envelope[T]) WithData(data T) Envelope[T] {
	e.Data = data
	return e
}

// WithTotal sets the row count.
func (e Envelope[T]) WithTotal(total int) Envelope[T] {
	e.TotalRows = &total
	return e
}

// WithException attaches error detail. An empty detail leaves the field null.
func (e Envelope[T]) WithException(detail string) Envelope[T] {
	if detail == "" {
		return e
	}
	e.Exception = &detail
	return e
}

// internal/services/errors.go
package services

import (
	"errors"
	"net/http"

	"github.com/javajoker/stockcount/internal/i18n"
)

// BusinessError is a rule violation the caller can act on. Handlers render it
// as the translated message under the carried status code.
type BusinessError struct {
	Status int
	Key    string
	Args   []interface{}
}

func (e *BusinessError) Error() string {
	return i18n.T("en", e.Key, e.Args...)
}

// Message renders the error in the requested language.
func (e *BusinessError) Message(lang string) string {
	return i18n.T(lang, e.Key, e.Args...)
}

func newBusinessError(status int, key string, args ...interface{}) *BusinessError {
	return &BusinessError{Status: status, Key: key, Args: args}
}

func badRequest(key string, args ...interface{}) *BusinessError {
	return newBusinessError(http.StatusBadRequest, key, args...)
}

func notFound(key string) *BusinessError {
	return newBusinessError(http.StatusNotFound, key)
}

func forbidden(key string) *BusinessError {
	return newBusinessError(http.StatusForbidden, key)
}

func unauthorized(key string) *BusinessError {
	return newBusinessError(http.StatusUnauthorized, key)
}

// AsBusinessError unwraps err into a *BusinessError when it is one.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsStatus reports whether err is a business error carrying status.
func IsStatus(err error, status int) bool {
	be, ok := AsBusinessError(err)
	return ok && be.Status == status
}

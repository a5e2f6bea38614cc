// Package dataservice is the data-access client the client form talks to.
package dataservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wellness-step-by-step/client-form/models"
)

// Endpoint is the client-records path relative to the API base.
const Endpoint = "api/client"

// InvalidBodyText is reported when a successful response carries a body
// that does not decode as a client record.
const InvalidBodyText = "Invalid response body"

type Service interface {
	Get(ctx context.Context, id int64, endpoint string) (models.Record, error)
	Create(ctx context.Context, endpoint string, record models.Record) (models.Record, error)
	Update(ctx context.Context, endpoint string, record models.Record) (models.Record, error)
}

// StatusError is a failed call that got an HTTP-like status back.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Text)
}

func NewStatusError(code int) *StatusError {
	return &StatusError{Code: code, Text: http.StatusText(code)}
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

package crm

import "errors"

var (
	// ErrMissingResult is returned when the CRM answered with a well-formed
	// response that lacks the expected result payload.
	ErrMissingResult = errors.New("crm response has no result")
	// ErrRemote wraps an error envelope returned by the CRM.
	ErrRemote = errors.New("crm error")
)

// Package mail defines the outbound delivery transport used by the dispatch
// engine. The engine only depends on the Transport interface and on the
// tagged TransportError kinds; the SMTP implementation lives alongside it.
package mail

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind tags a transport failure so callers never have to pattern-match
// raw server responses.
type ErrorKind int

const (
	// KindOther covers any failure without a more specific classification.
	KindOther ErrorKind = iota
	// KindAuth means the mail service rejected our credentials.
	KindAuth
	// KindRejected means the message itself was refused, typically for
	// spam suspicion or rate limiting.
	KindRejected
)

// TransportError is a classified delivery failure. Detail keeps the raw
// server response for the audit trail.
type TransportError struct {
	Kind   ErrorKind
	Detail string
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("authentication rejected: %s", e.Detail)
	case KindRejected:
		return fmt.Sprintf("message rejected: %s", e.Detail)
	default:
		return e.Detail
	}
}

// AsTransportError unwraps err into a *TransportError if it is one.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// Transport delivers a single message to a single recipient. Implementations
// own their timeouts; the engine treats the call as synchronous.
type Transport interface {
	Send(ctx context.Context, subject, body, from, to string) error
}

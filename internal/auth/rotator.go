// Package auth provides deterministic credential rotation for generated requests.
package auth

import (
	"fmt"
	"strings"
)

// Scheme identifies how a token is rendered into an Authorization header.
type Scheme string

const (
	SchemeBearer Scheme = "bearer"
	SchemeBasic  Scheme = "basic"
)

// Rotator assigns one token from an ordered list to each request index,
// wrapping around the list. For scheme basic the tokens are assumed to be
// pre-encoded by the caller; no base64 encoding is performed here.
type Rotator struct {
	scheme Scheme
	tokens []string
}

// NewRotator builds a Rotator for the given scheme and token list.
// A nil Rotator (no Authorization header) is returned when tokens is empty.
// An unknown scheme combined with a non-empty token list is an error.
func NewRotator(scheme string, tokens []string) (*Rotator, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	normalized := Scheme(strings.ToLower(strings.TrimSpace(scheme)))
	switch normalized {
	case SchemeBearer, SchemeBasic:
	default:
		return nil, fmt.Errorf("unsupported auth scheme %q", scheme)
	}

	copied := make([]string, len(tokens))
	copy(copied, tokens)

	return &Rotator{scheme: normalized, tokens: copied}, nil
}

// HeaderFor returns the Authorization header value for the request at the
// given index, selecting tokens[index mod len(tokens)]. It returns the empty
// string on a nil Rotator, meaning no header should be added.
func (r *Rotator) HeaderFor(index int) string {
	if r == nil || len(r.tokens) == 0 {
		return ""
	}

	token := r.tokens[index%len(r.tokens)]
	switch r.scheme {
	case SchemeBasic:
		return "Basic " + token
	default:
		return "Bearer " + token
	}
}

// Len reports how many tokens participate in the rotation.
func (r *Rotator) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tokens)
}

// Package vector is the only place that turns the embeddings table's textual
// vector representation into numbers. The upstream pipeline stores vectors
// the way numpy prints them: bracketed, newline-wrapped, whitespace-separated.
package vector

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a vector string that could not be coerced.
type ParseError struct {
	Token string // offending token, empty when the input held no tokens
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return "parse vector: no numeric tokens"
	}
	return fmt.Sprintf("parse vector: token %q: %v", e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// decoration characters stripped before tokenizing
var stripper = strings.NewReplacer("[", " ", "]", " ", ",", " ", "\n", " ", "\r", " ", "\t", " ")

// Parse coerces a serialized vector into a flat float32 slice.
// Returns *ParseError when any token is not numeric or the input is empty
// after stripping decoration. Dimensionality is not checked here; the index
// validates lengths at build and query time.
func Parse(s string) ([]float32, error) {
	tokens := strings.Fields(stripper.Replace(s))
	if len(tokens) == 0 {
		return nil, &ParseError{}
	}

	out := make([]float32, len(tokens))
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, &ParseError{Token: tok, Err: err}
		}
		out[i] = float32(f)
	}
	return out, nil
}

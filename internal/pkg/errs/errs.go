// Package errs wraps cockroachdb/errors behind the operations the rest of
// the system needs: wrapping with context, creating stack-carrying errors,
// marking errors with the sentinels in domain_errors.go, and checking those
// marks with Is.
package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func New(msg string) error {
	return cr.New(msg)
}

// Mark attaches markErr as an Is target without hiding err's message or
// stack. Marks are carried out of band, so only Is in this package sees
// them; the standard library errors.Is does not.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Is reports whether err carries reference in its chain, including marks
// attached with Mark. Callers branching on the sentinels in
// domain_errors.go must use this instead of the standard library errors.Is.
func Is(err, reference error) bool {
	return cr.Is(err, reference)
}

// ExtractStackLines renders err verbosely and returns at most maxLines lines,
// for structured log attributes where a full dump is too noisy.
func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

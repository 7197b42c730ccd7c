package infra

import (
	"errors"

	"voucherpos/internal/pkg/errs"
)

type RepositoryErrorKind string

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

func WrapRepoErr(kind RepositoryErrorKind, msg string, err error) error {
	if err != nil {
		err = errs.Wrap(err, msg)
	}
	wrapped := error(RepositoryError{Kind: kind, msg: msg, err: err})
	if kind == KindUnavailable {
		wrapped = errs.Mark(wrapped, errs.ErrRemoteUnavailable)
	}
	return wrapped
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Infrastructure-specific error kinds.
// KindUnavailable covers every transport-level failure (dial, timeout,
// connection loss) — the record stores treat it as the offline-fallback
// trigger, never as a terminal error.
const (
	KindNotFound    RepositoryErrorKind = "NOT_FOUND"
	KindUnavailable RepositoryErrorKind = "UNAVAILABLE"
	KindValidation  RepositoryErrorKind = "VALIDATION"
	KindDBFailure   RepositoryErrorKind = "DB_FAILURE"
)

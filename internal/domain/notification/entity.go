package notification

import (
	"errors"
	"time"
)

var ErrInvalidType = errors.New("invalid notification type")

// RingCap is how many notifications the ledger retains; older entries are
// evicted when a new one is prepended.
const RingCap = 50

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
)

func NewType(s string) (Type, error) {
	t := Type(s)
	switch t {
	case TypeSuccess, TypeError, TypeInfo:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// Notification is an append-only feed entry; existing entries are never
// mutated.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Prepend puts n at the head of the list and evicts beyond RingCap.
func Prepend(list []Notification, n Notification) []Notification {
	out := make([]Notification, 0, min(len(list)+1, RingCap))
	out = append(out, n)
	for _, existing := range list {
		if len(out) == RingCap {
			break
		}
		out = append(out, existing)
	}
	return out
}

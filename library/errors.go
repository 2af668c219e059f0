package library

import "errors"

// Outcomes reported by the circulation workflow. None of them is fatal; the
// caller reports the message and carries on.
var (
	// ErrMemberNotFound is returned when no member has the given id.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBookNotFound is returned when no copy has the given id.
	ErrBookNotFound = errors.New("book not found")

	// ErrBorrowLimitReached is returned when the member already holds as many
	// copies as their kind allows.
	ErrBorrowLimitReached = errors.New("member has reached their borrowing limit")

	// ErrNoCopyAvailable is returned when every copy of a work is borrowed or
	// held for another member.
	ErrNoCopyAvailable = errors.New("no available copy")

	// ErrNoCopyToReserve is returned when every copy of a work is already
	// borrowed or reserved.
	ErrNoCopyToReserve = errors.New("all copies are currently reserved or borrowed")

	// ErrNotCurrentlyBorrowed is returned when returning a copy that is on the shelf.
	ErrNotCurrentlyBorrowed = errors.New("book is not currently borrowed")
)

var (
	// ErrIDSpaceExhausted is returned when every identifier is in use.
	ErrIDSpaceExhausted = errors.New("id space exhausted")

	// ErrMalformedRecord is returned when a stored line cannot be parsed.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidInput is returned when an add operation gets unusable arguments.
	ErrInvalidInput = errors.New("invalid input")
)

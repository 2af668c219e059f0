package library

import (
	"fmt"
	"time"
)

// MemberKind selects a member's borrowing privileges.
type MemberKind int

const (
	Student MemberKind = iota + 1
	Professor
	TechnicalStaff
)

// MemberKinds lists every kind in menu order.
var MemberKinds = []MemberKind{Student, Professor, TechnicalStaff}

// String returns the type tag written to members.txt.
func (k MemberKind) String() string {
	switch k {
	case Student:
		return "Student"
	case Professor:
		return "Professor"
	case TechnicalStaff:
		return "TechnicalStaff"
	}
	return fmt.Sprintf("MemberKind(%d)", int(k))
}

// BorrowLimit is the number of copies a member of this kind may hold at once.
func (k MemberKind) BorrowLimit() int {
	switch k {
	case Student:
		return 5
	case Professor:
		return 10
	case TechnicalStaff:
		return 7
	}
	return 0
}

func (k MemberKind) valid() bool { return k >= Student && k <= TechnicalStaff }

// ParseMemberKind maps a stored type tag back to its kind.
func ParseMemberKind(tag string) (MemberKind, error) {
	for _, k := range MemberKinds {
		if k.String() == tag {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown member type %q", tag)
}

// Member is a registered borrower. The borrow count is only changed through
// RecordBorrow and RecordReturn so it always stays within the kind's limit.
type Member struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	Kind MemberKind `json:"-"`

	borrowCount int
}

// NewMember returns a member holding no copies.
func NewMember(id int, name string, kind MemberKind) *Member {
	return &Member{ID: id, Name: name, Kind: kind}
}

func (m *Member) BorrowLimit() int { return m.Kind.BorrowLimit() }
func (m *Member) BorrowCount() int { return m.borrowCount }
func (m *Member) CanBorrow() bool  { return m.borrowCount < m.BorrowLimit() }

// RecordBorrow counts one more borrowed copy, or returns ErrBorrowLimitReached
// and leaves the count alone.
func (m *Member) RecordBorrow() error {
	if !m.CanBorrow() {
		return ErrBorrowLimitReached
	}
	m.borrowCount++
	return nil
}

// RecordReturn counts one copy back in. The count never drops below zero.
func (m *Member) RecordReturn() {
	if m.borrowCount > 0 {
		m.borrowCount--
	}
}

// CopyState is the externally visible state of a book copy.
type CopyState string

const (
	CopyAvailable CopyState = "Available"
	CopyBorrowed  CopyState = "Borrowed"
	CopyReserved  CopyState = "Reserved"
)

// Reservation holds a copy for one member until it expires.
type Reservation struct {
	MemberID int       `json:"member_id"`
	At       time.Time `json:"reserved_at"`
}

// Book is a single physical copy. Several copies may share a title and author.
type Book struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Borrowed    bool         `json:"borrowed"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// State reports the copy's position in the Available/Reserved/Borrowed cycle.
func (b *Book) State() CopyState {
	switch {
	case b.Borrowed:
		return CopyBorrowed
	case b.Reservation != nil:
		return CopyReserved
	}
	return CopyAvailable
}

// Matches reports whether the copy is of the given work.
func (b *Book) Matches(title, author string) bool {
	return b.Title == title && b.Author == author
}

// TransactionKind is the direction of a circulation event.
type TransactionKind string

const (
	KindBorrow TransactionKind = "Borrow"
	KindReturn TransactionKind = "Return"
)

// DateLayout is the calendar-date format used in the ledger.
const DateLayout = "2006-01-02"

// Transaction is an immutable ledger entry.
type Transaction struct {
	Date     string          `json:"date"`
	BookID   int             `json:"book_id"`
	MemberID int             `json:"member_id"`
	Kind     TransactionKind `json:"kind"`
}

func newTransaction(now time.Time, bookID, memberID int, kind TransactionKind) Transaction {
	return Transaction{
		Date:     now.Local().Format(DateLayout),
		BookID:   bookID,
		MemberID: memberID,
		Kind:     kind,
	}
}

package library

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// lineCodec translates between a record and its single-line, whitespace
// delimited on-disk form.
type lineCodec[T any] interface {
	Encode(v T) string
	Decode(line string) (T, error)
}

// escapeField keeps a text field in one whitespace-free token. Whitespace and
// '%' are percent-encoded; anything else is written as is, so plain titles
// look exactly like they always did.
func escapeField(s string) string {
	if !strings.ContainsFunc(s, needsEscape) {
		return s
	}
	var sb strings.Builder
	buf := make([]byte, utf8.UTFMax)
	for _, r := range s {
		if !needsEscape(r) {
			sb.WriteRune(r)
			continue
		}
		n := utf8.EncodeRune(buf, r)
		for _, b := range buf[:n] {
			fmt.Fprintf(&sb, "%%%02X", b)
		}
	}
	return sb.String()
}

func needsEscape(r rune) bool { return r == '%' || unicode.IsSpace(r) }

// unescapeField reverses escapeField. A token that is not valid escaping,
// such as a legacy title with a bare '%', is kept as written.
func unescapeField(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

func splitRecord(line string, want int) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, want, len(fields))
	}
	return fields, nil
}

func parseInt(field, name string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedRecord, name, field)
	}
	return n, nil
}


// ---------------------------------------------------------------------------
// Books: id title author borrowed(0|1) reservedBy(-1) reservedAt(epoch, 0)
// ---------------------------------------------------------------------------

const noMember = -1

type bookCodec struct{}

func (bookCodec) Encode(b *Book) string {
	borrowed := 0
	if b.Borrowed {
		borrowed = 1
	}
	reservedBy, reservedAt := noMember, int64(0)
	if b.Reservation != nil {
		reservedBy, reservedAt = b.Reservation.MemberID, b.Reservation.At.Unix()
	}
	return fmt.Sprintf("%d %s %s %d %d %d",
		b.ID, escapeField(b.Title), escapeField(b.Author), borrowed, reservedBy, reservedAt)
}

func (bookCodec) Decode(line string) (*Book, error) {
	f, err := splitRecord(line, 6)
	if err != nil {
		return nil, err
	}
	b := &Book{}
	if b.ID, err = parseInt(f[0], "id"); err != nil {
		return nil, err
	}
	b.Title = unescapeField(f[1])
	b.Author = unescapeField(f[2])
	switch f[3] {
	case "0":
	case "1":
		b.Borrowed = true
	default:
		return nil, fmt.Errorf("%w: borrowed flag %q", ErrMalformedRecord, f[3])
	}
	reservedBy, err := parseInt(f[4], "reservedBy")
	if err != nil {
		return nil, err
	}
	reservedAt, err := strconv.ParseInt(f[5], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation time %q", ErrMalformedRecord, f[5])
	}
	if reservedBy != noMember {
		b.Reservation = &Reservation{MemberID: reservedBy, At: time.Unix(reservedAt, 0)}
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Members: id name typeTag borrowCount
// ---------------------------------------------------------------------------

// memberCodec rebuilds the borrow count by replaying RecordBorrow, so a count
// above the kind's limit is clamped rather than trusted.
type memberCodec struct {
	log *slog.Logger
}

func (memberCodec) Encode(m *Member) string {
	return fmt.Sprintf("%d %s %s %d", m.ID, escapeField(m.Name), m.Kind, m.BorrowCount())
}

func (c memberCodec) Decode(line string) (*Member, error) {
	f, err := splitRecord(line, 4)
	if err != nil {
		return nil, err
	}
	id, err := parseInt(f[0], "id")
	if err != nil {
		return nil, err
	}
	name := unescapeField(f[1])
	kind, err := ParseMemberKind(f[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	stored, err := parseInt(f[3], "borrowCount")
	if err != nil {
		return nil, err
	}
	if stored < 0 {
		return nil, fmt.Errorf("%w: negative borrow count %d", ErrMalformedRecord, stored)
	}

	m := NewMember(id, name, kind)
	for m.BorrowCount() < stored {
		if err := m.RecordBorrow(); err != nil {
			if c.log != nil {
				c.log.Warn("stored borrow count exceeds limit, clamped",
					"member", id, "stored", stored, "limit", m.BorrowLimit())
			}
			break
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Transactions: date(YYYY-MM-DD) bookId memberId kind
// ---------------------------------------------------------------------------

type transactionCodec struct{}

func (transactionCodec) Encode(t Transaction) string {
	return fmt.Sprintf("%s %d %d %s", t.Date, t.BookID, t.MemberID, t.Kind)
}

func (transactionCodec) Decode(line string) (Transaction, error) {
	f, err := splitRecord(line, 4)
	if err != nil {
		return Transaction{}, err
	}
	if _, err := time.Parse(DateLayout, f[0]); err != nil {
		return Transaction{}, fmt.Errorf("%w: date %q", ErrMalformedRecord, f[0])
	}
	t := Transaction{Date: f[0]}
	if t.BookID, err = parseInt(f[1], "bookId"); err != nil {
		return Transaction{}, err
	}
	if t.MemberID, err = parseInt(f[2], "memberId"); err != nil {
		return Transaction{}, err
	}
	switch kind := TransactionKind(f[3]); kind {
	case KindBorrow, KindReturn:
		t.Kind = kind
	default:
		return Transaction{}, fmt.Errorf("%w: kind %q", ErrMalformedRecord, f[3])
	}
	return t, nil
}

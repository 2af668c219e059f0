package library

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "library-circulation/library"

// Circulation runs borrow, reserve and return against the catalog, roster
// and ledger. Every successful mutation is written through before it returns.
type Circulation struct {
	catalog *Catalog
	roster  *Roster
	ledger  Ledger
	now     func() time.Time
	log     *slog.Logger

	tracer trace.Tracer
	ops    metric.Int64Counter
}

// NewCirculation wires the workflow to its stores. now defaults to time.Now.
func NewCirculation(catalog *Catalog, roster *Roster, ledger Ledger, now func() time.Time, log *slog.Logger) *Circulation {
	if now == nil {
		now = time.Now
	}
	ops, err := otel.Meter(instrumentationName).Int64Counter(
		"library.circulation.operations",
		metric.WithDescription("Circulation operations by kind and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		log.Warn("circulation counter unavailable", "err", err)
		ops = noop.Int64Counter{}
	}
	return &Circulation{
		catalog: catalog,
		roster:  roster,
		ledger:  ledger,
		now:     now,
		log:     log,
		tracer:  otel.Tracer(instrumentationName),
		ops:     ops,
	}
}

// Borrow lends the first eligible copy of (title, author) to the member. A
// copy is eligible when it is on the shelf and unreserved or reserved for this
// member; stale reservations are cleared while scanning.
func (c *Circulation) Borrow(ctx context.Context, memberID int, title, author string) (book *Book, err error) {
	ctx, span := c.tracer.Start(ctx, "circulation.borrow", trace.WithAttributes(
		attribute.Int("member.id", memberID),
		attribute.String("book.title", title),
		attribute.String("book.author", author),
	))
	defer func() { c.finish(ctx, span, "borrow", book, err) }()

	m := c.roster.FindByID(memberID)
	if m == nil {
		return nil, ErrMemberNotFound
	}
	if !m.CanBorrow() {
		return nil, ErrBorrowLimitReached
	}

	now := c.now()
	for _, b := range c.catalog.Copies(title, author) {
		c.expire(b, now)
		if !b.borrowableBy(memberID) {
			continue
		}

		if err := m.RecordBorrow(); err != nil {
			return nil, err
		}
		b.markBorrowed()
		if err := c.writeThrough(b, m, newTransaction(now, b.ID, m.ID, KindBorrow)); err != nil {
			return nil, err
		}
		c.log.Info("book borrowed", "book", b.ID, "member", m.ID)
		return b, nil
	}
	return nil, ErrNoCopyAvailable
}

// Reserve holds the first copy of (title, author) that is neither borrowed
// nor reserved for the member.
func (c *Circulation) Reserve(ctx context.Context, memberID int, title, author string) (book *Book, err error) {
	ctx, span := c.tracer.Start(ctx, "circulation.reserve", trace.WithAttributes(
		attribute.Int("member.id", memberID),
		attribute.String("book.title", title),
		attribute.String("book.author", author),
	))
	defer func() { c.finish(ctx, span, "reserve", book, err) }()

	if c.roster.FindByID(memberID) == nil {
		return nil, ErrMemberNotFound
	}

	now := c.now()
	for _, b := range c.catalog.Copies(title, author) {
		c.expire(b, now)
		if !b.reservable() {
			continue
		}

		b.reserve(memberID, now)
		if err := c.catalog.PersistUpdate(b); err != nil {
			return nil, err
		}
		c.log.Info("book reserved", "book", b.ID, "member", memberID)
		return b, nil
	}
	return nil, ErrNoCopyToReserve
}

// Return puts a borrowed copy back on the shelf. The returning member is not
// checked against whoever borrowed the copy; only the aggregate flag is kept.
func (c *Circulation) Return(ctx context.Context, bookID, memberID int) (book *Book, err error) {
	ctx, span := c.tracer.Start(ctx, "circulation.return", trace.WithAttributes(
		attribute.Int("book.id", bookID),
		attribute.Int("member.id", memberID),
	))
	defer func() { c.finish(ctx, span, "return", book, err) }()

	b := c.catalog.FindByID(bookID)
	if b == nil {
		return nil, ErrBookNotFound
	}
	m := c.roster.FindByID(memberID)
	if m == nil {
		return nil, ErrMemberNotFound
	}
	if !b.Borrowed {
		return nil, ErrNotCurrentlyBorrowed
	}

	b.markReturned()
	m.RecordReturn()
	if err := c.writeThrough(b, m, newTransaction(c.now(), b.ID, m.ID, KindReturn)); err != nil {
		return nil, err
	}
	c.log.Info("book returned", "book", b.ID, "member", m.ID)
	return b, nil
}

func (c *Circulation) expire(b *Book, now time.Time) {
	if prev := b.Reservation; prev != nil && b.expireReservation(now) {
		c.log.Info("reservation expired", "book", b.ID, "member", prev.MemberID, "reserved_at", prev.At)
	}
}

// writeThrough persists the copy, then the member, then the ledger entry.
// The three writes are not atomic as a group.
func (c *Circulation) writeThrough(b *Book, m *Member, t Transaction) error {
	if err := c.catalog.PersistUpdate(b); err != nil {
		return err
	}
	if err := c.roster.PersistUpdate(m); err != nil {
		return err
	}
	return c.ledger.Append(t)
}

func (c *Circulation) finish(ctx context.Context, span trace.Span, op string, b *Book, err error) {
	outcome := outcomeOf(err)
	if b != nil {
		span.SetAttributes(attribute.Int("book.id", b.ID))
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	c.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMemberNotFound):
		return "member_not_found"
	case errors.Is(err, ErrBookNotFound):
		return "book_not_found"
	case errors.Is(err, ErrBorrowLimitReached):
		return "borrow_limit_reached"
	case errors.Is(err, ErrNoCopyAvailable):
		return "no_copy_available"
	case errors.Is(err, ErrNoCopyToReserve):
		return "no_copy_to_reserve"
	case errors.Is(err, ErrNotCurrentlyBorrowed):
		return "not_currently_borrowed"
	}
	return "error"
}

package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Data file names inside the data directory.
const (
	BooksFile        = "books.txt"
	MembersFile      = "members.txt"
	TransactionsFile = "transactions.txt"
	TransactionsDB   = "transactions.db"
)

// Ledger backends accepted by Options.Ledger.
const (
	LedgerFile   = "file"
	LedgerSQLite = "sqlite"
)

// Options configures a LibraryManager. Zero values give a file ledger in the
// current directory, the wall clock, a random id source and a silent logger.
type Options struct {
	DataDir string
	Ledger  string
	Now     func() time.Time
	Rand    *rand.Rand
	Logger  *slog.Logger
}

// LibraryManager is a thin façade over the stores and the circulation
// workflow, keeping CLI code simple.
type LibraryManager struct {
	catalog  *Catalog
	roster   *Roster
	ledger   Ledger
	circ     *Circulation
	validate *validator.Validate
	log      *slog.Logger
}

// NewLibraryManager loads the catalog and roster from opts.DataDir and opens
// the ledger.
func NewLibraryManager(opts Options) (*LibraryManager, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dir := opts.DataDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	catalog, err := OpenCatalog(filepath.Join(dir, BooksFile), NewIDAllocator(opts.Rand), log)
	if err != nil {
		return nil, err
	}
	roster, err := OpenRoster(filepath.Join(dir, MembersFile), NewIDAllocator(opts.Rand), log)
	if err != nil {
		return nil, err
	}

	var ledger Ledger
	switch opts.Ledger {
	case "", LedgerFile:
		ledger = NewFileLedger(filepath.Join(dir, TransactionsFile), log)
	case LedgerSQLite:
		if ledger, err = NewSQLiteLedger(filepath.Join(dir, TransactionsDB)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", opts.Ledger)
	}

	return &LibraryManager{
		catalog:  catalog,
		roster:   roster,
		ledger:   ledger,
		circ:     NewCirculation(catalog, roster, ledger, opts.Now, log),
		validate: validator.New(),
		log:      log,
	}, nil
}

// Close closes the ledger.
func (lm *LibraryManager) Close() error { return lm.ledger.Close() }

// ------------------ Catalog & roster ------------------

type bookInput struct {
	Title  string `validate:"required,max=256"`
	Author string `validate:"required,max=256"`
}

type memberInput struct {
	Name string     `validate:"required,max=256"`
	Kind MemberKind `validate:"min=1,max=3"`
}

// AddBook adds one copy of (title, author). Call it again for more copies.
func (lm *LibraryManager) AddBook(title, author string) (*Book, error) {
	in := bookInput{Title: strings.TrimSpace(title), Author: strings.TrimSpace(author)}
	if err := lm.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return lm.catalog.Add(in.Title, in.Author)
}

// AddMember registers a member with the privileges of kind.
func (lm *LibraryManager) AddMember(kind MemberKind, name string) (*Member, error) {
	in := memberInput{Name: strings.TrimSpace(name), Kind: kind}
	if err := lm.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return lm.roster.Add(in.Kind, in.Name)
}

func (lm *LibraryManager) GetBook(id int) (*Book, error) {
	if b := lm.catalog.FindByID(id); b != nil {
		return b, nil
	}
	return nil, ErrBookNotFound
}

func (lm *LibraryManager) GetMember(id int) (*Member, error) {
	if m := lm.roster.FindByID(id); m != nil {
		return m, nil
	}
	return nil, ErrMemberNotFound
}

func (lm *LibraryManager) ListBooks() []*Book     { return lm.catalog.All() }
func (lm *LibraryManager) ListMembers() []*Member { return lm.roster.All() }

// Transactions reads the ledger back in append order.
func (lm *LibraryManager) Transactions() ([]Transaction, error) { return lm.ledger.LoadAll() }

// ------------------ Circulation ------------------

// ReservationOffer is asked whether to reserve a copy when none can be
// borrowed. Returning false declines.
type ReservationOffer func(title, author string) bool

// BorrowOutcome says what BorrowBook did: lent a copy or, after an accepted
// offer, reserved one.
type BorrowOutcome struct {
	Borrowed *Book
	Reserved *Book
}

// BorrowBook lends a copy of (title, author) to the member. When no copy is
// available and offer accepts, it reserves one instead. A declined or nil
// offer yields ErrNoCopyAvailable.
func (lm *LibraryManager) BorrowBook(ctx context.Context, memberID int, title, author string, offer ReservationOffer) (BorrowOutcome, error) {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)

	b, err := lm.circ.Borrow(ctx, memberID, title, author)
	if err == nil {
		return BorrowOutcome{Borrowed: b}, nil
	}
	if !errors.Is(err, ErrNoCopyAvailable) || offer == nil || !offer(title, author) {
		return BorrowOutcome{}, err
	}

	r, err := lm.circ.Reserve(ctx, memberID, title, author)
	if err != nil {
		return BorrowOutcome{}, err
	}
	return BorrowOutcome{Reserved: r}, nil
}

// ReserveBook holds a copy of (title, author) for the member.
func (lm *LibraryManager) ReserveBook(ctx context.Context, memberID int, title, author string) (*Book, error) {
	return lm.circ.Reserve(ctx, memberID, strings.TrimSpace(title), strings.TrimSpace(author))
}

// ReturnBook puts copy bookID back on the shelf on behalf of memberID.
func (lm *LibraryManager) ReturnBook(ctx context.Context, bookID, memberID int) (*Book, error) {
	return lm.circ.Return(ctx, bookID, memberID)
}

// Save rewrites the books and members files from memory. Reservations cleared
// by expiry since their last write become durable here.
func (lm *LibraryManager) Save() error {
	return errors.Join(lm.catalog.Save(), lm.roster.Save())
}

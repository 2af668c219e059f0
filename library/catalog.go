package library

import (
	"fmt"
	"log/slog"
)

// Catalog is the in-memory collection of book copies, kept in step with the
// books file.
type Catalog struct {
	repo  *fileRepository[*Book]
	ids   *IDAllocator
	books []*Book
	log   *slog.Logger
}

// OpenCatalog loads every copy stored at path. Loaded ids are registered with
// ids so new copies never collide with them.
func OpenCatalog(path string, ids *IDAllocator, log *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		repo: newFileRepository[*Book](path, bookCodec{}, func(b *Book) int { return b.ID }, log),
		ids:  ids,
		log:  log,
	}
	books, err := c.repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	for _, b := range books {
		if b.Borrowed && b.Reservation != nil {
			log.Warn("borrowed copy carried a reservation, dropped", "book", b.ID)
			b.Reservation = nil
		}
		if ids.InUse(b.ID) {
			log.Warn("duplicate book id in file", "book", b.ID)
		}
		ids.Reserve(b.ID)
	}
	c.books = books
	log.Debug("catalog loaded", "path", path, "copies", len(books))
	return c, nil
}

// Add registers a new copy and appends it to the books file.
func (c *Catalog) Add(title, author string) (*Book, error) {
	id, err := c.ids.Allocate()
	if err != nil {
		return nil, fmt.Errorf("allocate book id: %w", err)
	}
	b := &Book{ID: id, Title: title, Author: author}
	if err := c.repo.AppendOne(b); err != nil {
		return nil, err
	}
	c.books = append(c.books, b)
	return b, nil
}

// FindByTitleAuthor returns the first copy of the work, in insertion order.
func (c *Catalog) FindByTitleAuthor(title, author string) *Book {
	for _, b := range c.books {
		if b.Matches(title, author) {
			return b
		}
	}
	return nil
}

// Copies returns every copy of the work, in insertion order.
func (c *Catalog) Copies(title, author string) []*Book {
	var out []*Book
	for _, b := range c.books {
		if b.Matches(title, author) {
			out = append(out, b)
		}
	}
	return out
}

func (c *Catalog) FindByID(id int) *Book {
	for _, b := range c.books {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// PersistUpdate rewrites the stored record for b. Copies sharing an id each
// keep their own line.
func (c *Catalog) PersistUpdate(b *Book) error {
	nth := occurrence(c.books, b, c.repo.key)
	if err := c.repo.RewriteOne(b, nth); err != nil {
		return fmt.Errorf("persist book %d: %w", b.ID, err)
	}
	return nil
}

// All returns the copies in insertion order.
func (c *Catalog) All() []*Book {
	return append([]*Book(nil), c.books...)
}

// Save rewrites the whole books file from memory.
func (c *Catalog) Save() error {
	if err := c.repo.RewriteAll(c.books); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	return nil
}

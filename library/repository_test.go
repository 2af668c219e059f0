package library

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tempBookRepo(t *testing.T) (*fileRepository[*Book], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), BooksFile)
	return newFileRepository[*Book](path, bookCodec{}, func(b *Book) int { return b.ID }, discardLogger()), path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestLoadAllMissingFile(t *testing.T) {
	repo, _ := tempBookRepo(t)
	books, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestLoadAllSkipsBadLines(t *testing.T) {
	repo, path := tempBookRepo(t)
	writeFile(t, path, "1 Dune Herbert 0 -1 0\n\ngarbage\n2 Emma Austen 1 -1 0\n5 100% Author 0 -1 0\n")

	books, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, 1, books[0].ID)
	assert.Equal(t, 2, books[1].ID)
	assert.Equal(t, "100%", books[2].Title, "bare % in a legacy title is kept")
}

func TestAppendOneAddsMissingNewline(t *testing.T) {
	repo, path := tempBookRepo(t)
	writeFile(t, path, "1 Dune Herbert 0 -1 0")

	require.NoError(t, repo.AppendOne(&Book{ID: 2, Title: "Emma", Author: "Austen"}))
	assert.Equal(t, "1 Dune Herbert 0 -1 0\n2 Emma Austen 0 -1 0\n", readFile(t, path))
}

func TestRewriteOneKeepsOtherLines(t *testing.T) {
	repo, path := tempBookRepo(t)
	writeFile(t, path, "1 Dune Herbert 0 -1 0\nnot a record\n2 Emma Austen 0 -1 0\n")

	require.NoError(t, repo.RewriteOne(&Book{ID: 2, Title: "Emma", Author: "Austen", Borrowed: true}, 0))
	assert.Equal(t, "1 Dune Herbert 0 -1 0\nnot a record\n2 Emma Austen 1 -1 0\n", readFile(t, path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestRewriteOneDuplicateKey(t *testing.T) {
	repo, path := tempBookRepo(t)
	writeFile(t, path, "7 Dune Herbert 0 -1 0\n7 Emma Austen 0 -1 0\n")

	require.NoError(t, repo.RewriteOne(&Book{ID: 7, Title: "Emma", Author: "Austen", Borrowed: true}, 1))
	assert.Equal(t, "7 Dune Herbert 0 -1 0\n7 Emma Austen 1 -1 0\n", readFile(t, path))

	require.NoError(t, repo.RewriteOne(&Book{ID: 7, Title: "Dune", Author: "Herbert", Borrowed: true}, 0))
	assert.Equal(t, "7 Dune Herbert 1 -1 0\n7 Emma Austen 1 -1 0\n", readFile(t, path))
}

func TestOccurrence(t *testing.T) {
	a, b, c := &Book{ID: 7}, &Book{ID: 3}, &Book{ID: 7}
	books := []*Book{a, b, c}
	key := func(b *Book) int { return b.ID }
	assert.Equal(t, 0, occurrence(books, a, key))
	assert.Equal(t, 0, occurrence(books, b, key))
	assert.Equal(t, 1, occurrence(books, c, key))
}

func TestRewriteOneAppendsUnknownRecord(t *testing.T) {
	repo, path := tempBookRepo(t)
	writeFile(t, path, "1 Dune Herbert 0 -1 0\n")

	require.NoError(t, repo.RewriteOne(&Book{ID: 9, Title: "Emma", Author: "Austen"}, 0))
	assert.Equal(t, "1 Dune Herbert 0 -1 0\n9 Emma Austen 0 -1 0\n", readFile(t, path))
}

func TestRewriteOneAppendOnly(t *testing.T) {
	l := NewFileLedger(filepath.Join(t.TempDir(), TransactionsFile), discardLogger())
	err := l.repo.RewriteOne(Transaction{Date: "2024-01-01", BookID: 1, MemberID: 1, Kind: KindBorrow}, 0)
	assert.Error(t, err)
}

func TestRewriteAll(t *testing.T) {
	repo, path := tempBookRepo(t)
	writeFile(t, path, "junk\n1 Dune Herbert 0 -1 0\n")

	require.NoError(t, repo.RewriteAll([]*Book{{ID: 4, Title: "Ulysses", Author: "Joyce"}}))
	assert.Equal(t, "4 Ulysses Joyce 0 -1 0\n", readFile(t, path))
}

package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLedgerDB(t *testing.T, path string) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteLedgerAppendOrder(t *testing.T) {
	l := tempLedgerDB(t, filepath.Join(t.TempDir(), TransactionsDB))
	want := []Transaction{
		{Date: "2024-05-01", BookID: 3, MemberID: 8, Kind: KindBorrow},
		{Date: "2024-05-01", BookID: 1, MemberID: 8, Kind: KindBorrow},
		{Date: "2024-05-02", BookID: 3, MemberID: 8, Kind: KindReturn},
	}
	for _, tx := range want {
		require.NoError(t, l.Append(tx))
	}

	got, err := l.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteLedgerReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TransactionsDB)
	first, err := NewSQLiteLedger(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(Transaction{Date: "2024-05-01", BookID: 1, MemberID: 2, Kind: KindBorrow}))
	require.NoError(t, first.Close())

	// Migrations are applied once; reopening keeps the rows.
	second := tempLedgerDB(t, path)
	got, err := second.LoadAll()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteLedgerIsAppendOnly(t *testing.T) {
	l := tempLedgerDB(t, filepath.Join(t.TempDir(), TransactionsDB))
	require.NoError(t, l.Append(Transaction{Date: "2024-05-01", BookID: 1, MemberID: 2, Kind: KindBorrow}))

	_, err := l.db.Exec(`UPDATE transactions SET kind='Return'`)
	assert.Error(t, err)
	_, err = l.db.Exec(`DELETE FROM transactions`)
	assert.Error(t, err)

	err = l.Append(Transaction{Date: "2024-05-01", BookID: 1, MemberID: 2, Kind: "Renew"})
	assert.Error(t, err)
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	migrationsFS, err := fs.Sub(EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := New(path, migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db := openTestDB(t, path)

	// Migration'lar schema_migrations'a kaydedilir
	var applied int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Greater(t, applied, 0)

	// Foreign key'ler açık olmalı
	var fk int
	require.NoError(t, db.Conn.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	// Aynı dosyaya ikinci açılış — migration'lar tekrar koşulmaz, hata vermez
	db2 := openTestDB(t, path)

	var applied2 int
	require.NoError(t, db2.Conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied2))
	assert.Equal(t, applied, applied2)
}

func TestSplitStatements(t *testing.T) {
	t.Run("comments with semicolons and quotes are ignored", func(t *testing.T) {
		input := `-- başlık; 'tek tırnaklı' açıklama
CREATE TABLE a (
    x TEXT -- kolon notu; devamı burada
);

-- araya giren yorum; bir tane daha
INSERT INTO a (x) VALUES ('a;b''c');
-- kapanış yorumu`

		stmts := splitStatements(input)
		require.Len(t, stmts, 2)
		assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
		assert.NotContains(t, stmts[0], "kolon notu")
		assert.Contains(t, stmts[1], "'a;b''c'")
	})

	t.Run("string literals keep semicolons and escaped quotes", func(t *testing.T) {
		stmts := splitStatements(`INSERT INTO a VALUES ('x;y'); INSERT INTO a VALUES ('it''s');`)
		require.Len(t, stmts, 2)
		assert.Contains(t, stmts[0], "'x;y'")
		assert.Contains(t, stmts[1], "'it''s'")
	})

	t.Run("double dash inside a string is not a comment", func(t *testing.T) {
		stmts := splitStatements(`INSERT INTO a VALUES ('x--y'); INSERT INTO a VALUES ('z');`)
		require.Len(t, stmts, 2)
		assert.Contains(t, stmts[0], "'x--y'")
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, filepath.Join(t.TempDir(), "test.db"))

	insertUser := func(tx TxQuerier, id string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, full_name) VALUES (?, ?, ?)`, id, id, id)
		return err
	}

	countUsers := func() int {
		var n int
		require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
		return n
	}

	t.Run("commit on success", func(t *testing.T) {
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			return insertUser(tx, "u1")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countUsers())
	})

	t.Run("rollback on error", func(t *testing.T) {
		wantErr := errors.New("boom")
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			if err := insertUser(tx, "u2"); err != nil {
				return err
			}
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, 1, countUsers())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
				if err := insertUser(tx, "u3"); err != nil {
					return err
				}
				panic("unexpected")
			})
		})
		assert.Equal(t, 1, countUsers())
	})
}

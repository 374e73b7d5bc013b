package storage

// sqlite.go — cache de consejos en un archivo local.
//
// Estrategia:
//   - `advice_cache`: una fila por hash de análisis (UPSERT), tips como JSON.
//   - Expiración por fila (expires_at); una lectura vencida es un miss.
//   - Prune automático al arrancar: filas vencidas se borran.
//   - Solo texto derivado. Nunca se guardan filas del trader.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS advice_cache (
    key        TEXT PRIMARY KEY,
    tips       TEXT     NOT NULL,
    created_at DATETIME NOT NULL,
    expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_advice_expires ON advice_cache(expires_at);
`

// SQLiteCache implementa ports.AdviceCache usando SQLite (pure Go, sin CGo).
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteCache abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia entradas vencidas.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteCache: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteCache: apply schema: %w", err)
	}

	c := &SQLiteCache{db: db, now: func() time.Time { return time.Now().UTC() }}
	c.pruneExpired(context.Background())
	return c, nil
}

// Get devuelve los tips de la clave si existen y no vencieron.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	var (
		raw     string
		expires time.Time
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT tips, expires_at FROM advice_cache WHERE key = ?`, key,
	).Scan(&raw, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage.SQLiteCache.Get: %w", err)
	}
	if !expires.After(c.now()) {
		return nil, false, nil
	}

	var tips []string
	if err := json.Unmarshal([]byte(raw), &tips); err != nil {
		return nil, false, fmt.Errorf("storage.SQLiteCache.Get: decode tips: %w", err)
	}
	return tips, true, nil
}

// Set hace upsert de los tips con el TTL dado.
func (c *SQLiteCache) Set(ctx context.Context, key string, tips []string, ttl time.Duration) error {
	if tips == nil {
		tips = []string{}
	}
	payload, err := json.Marshal(tips)
	if err != nil {
		return fmt.Errorf("storage.SQLiteCache.Set: encode tips: %w", err)
	}
	now := c.now()
	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO advice_cache (key, tips, created_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			tips       = excluded.tips,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		key, string(payload), now, now.Add(ttl),
	); err != nil {
		return fmt.Errorf("storage.SQLiteCache.Set: upsert: %w", err)
	}
	return nil
}

// Len devuelve la cantidad de entradas no vencidas.
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM advice_cache WHERE expires_at > ?`, c.now(),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.SQLiteCache.Len: %w", err)
	}
	return n, nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// pruneExpired elimina entradas vencidas para mantener la DB ligera.
func (c *SQLiteCache) pruneExpired(ctx context.Context) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM advice_cache WHERE expires_at <= ?`, c.now())
	if err != nil {
		slog.Warn("advice cache prune failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("advice cache pruned", "rows", n)
	}
}

package decompile

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/chazu/pordis/pkg/bytecode"
	"github.com/chazu/pordis/pkg/printer"
)

// Cache persists decompiled events keyed by the sha256 of the scene's
// script bytes and dialect, so re-running the pipeline over an unchanged
// container skips straight to the cached result.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if necessary) a decompile-result cache at
// path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring cache %s: %w", path, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS scenes (
		hash TEXT PRIMARY KEY,
		event BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func sceneKey(script []byte, dialect bytecode.Dialect) string {
	h := sha256.New()
	h.Write([]byte{byte(dialect)})
	h.Write(script)
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a cached event for script under dialect. The bool return
// is false on a cache miss, not an error.
func (c *Cache) Get(script []byte, dialect bytecode.Dialect) (printer.Event, bool, error) {
	var blob []byte
	err := c.db.QueryRow("SELECT event FROM scenes WHERE hash = ?", sceneKey(script, dialect)).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return printer.Event{}, false, nil
	}
	if err != nil {
		return printer.Event{}, false, fmt.Errorf("querying cache: %w", err)
	}

	var ev printer.Event
	if err := cbor.Unmarshal(blob, &ev); err != nil {
		return printer.Event{}, false, fmt.Errorf("decoding cached event: %w", err)
	}
	return ev, true, nil
}

// Put stores ev under script's content hash. Events that failed to
// decompile are never cached, since the point of caching is to skip
// re-running a pipeline that already succeeded.
func (c *Cache) Put(script []byte, dialect bytecode.Dialect, ev printer.Event) error {
	if ev.Err != nil {
		return nil
	}

	blob, err := cborEncMode.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event for cache: %w", err)
	}

	_, err = c.db.Exec("INSERT OR REPLACE INTO scenes (hash, event) VALUES (?, ?)", sceneKey(script, dialect), blob)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

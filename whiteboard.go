package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StrokeDB is the SQLite backing store for whiteboard pages
type StrokeDB struct {
	conn *sql.DB
}

// OpenStrokeDB opens (or creates) the stroke database
func OpenStrokeDB(path string) (*StrokeDB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers from blocking the batch writer
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &StrokeDB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *StrokeDB) Close() error {
	return db.conn.Close()
}

func (db *StrokeDB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS strokes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_strokes_page ON strokes(page);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("stroke DB migration error: %v", err)
	}
	return err
}

// InsertStrokes writes a batch of strokes in one transaction
func (db *StrokeDB) InsertStrokes(batch []pageStroke) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO strokes (page, data) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range batch {
		if _, err := stmt.Exec(s.page, string(s.data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PageStrokes returns the full stroke log of a page in insertion order
func (db *StrokeDB) PageStrokes(page string) ([]json.RawMessage, error) {
	rows, err := db.conn.Query("SELECT data FROM strokes WHERE page = ? ORDER BY id", page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		result = append(result, json.RawMessage(data))
	}
	return result, rows.Err()
}

// ClearPage deletes every stroke on a page
func (db *StrokeDB) ClearPage(page string) error {
	_, err := db.conn.Exec("DELETE FROM strokes WHERE page = ?", page)
	return err
}

type pageStroke struct {
	page string
	data json.RawMessage
}

// Whiteboard is the append-only per-page stroke log. Reads are served
// from an in-memory cache (hydrated from SQLite on first access) so a
// fetch right after an append sees the stroke; persistence happens on a
// background batch writer so the websocket handlers never wait on disk.
type Whiteboard struct {
	db      *StrokeDB
	pending chan pageStroke
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	pages map[string][]json.RawMessage
}

// NewWhiteboard creates the board and starts its background writer.
// A nil db keeps the board memory-only.
func NewWhiteboard(db *StrokeDB) *Whiteboard {
	wb := &Whiteboard{
		db:      db,
		pending: make(chan pageStroke, 1024),
		stopCh:  make(chan struct{}),
		pages:   make(map[string][]json.RawMessage),
	}
	if db != nil {
		wb.wg.Add(1)
		go wb.writer()
	}
	return wb
}

// Stop flushes pending strokes and stops the writer
func (wb *Whiteboard) Stop() {
	if wb.db == nil {
		return
	}
	close(wb.stopCh)
	wb.wg.Wait()
}

// AddStroke appends a stroke to a page
func (wb *Whiteboard) AddStroke(page string, data json.RawMessage) {
	wb.mu.Lock()
	wb.hydrateLocked(page)
	wb.pages[page] = append(wb.pages[page], data)
	wb.mu.Unlock()

	if wb.db == nil {
		return
	}
	select {
	case wb.pending <- pageStroke{page: page, data: data}:
	default:
		// Writer backlogged — persist inline rather than lose the stroke
		if err := wb.db.InsertStrokes([]pageStroke{{page: page, data: data}}); err != nil {
			log.Printf("whiteboard: inline insert error: %v", err)
		}
	}
}

// PageStrokes returns the stroke log of a page
func (wb *Whiteboard) PageStrokes(page string) []json.RawMessage {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.hydrateLocked(page)
	strokes := wb.pages[page]
	out := make([]json.RawMessage, len(strokes))
	copy(out, strokes)
	return out
}

// ClearPage empties a page in cache and store
func (wb *Whiteboard) ClearPage(page string) {
	wb.mu.Lock()
	wb.pages[page] = []json.RawMessage{}
	wb.mu.Unlock()

	if wb.db != nil {
		if err := wb.db.ClearPage(page); err != nil {
			log.Printf("whiteboard: clear error: %v", err)
		}
	}
}

// hydrateLocked loads a page from SQLite on first touch
func (wb *Whiteboard) hydrateLocked(page string) {
	if _, ok := wb.pages[page]; ok || wb.db == nil {
		return
	}
	strokes, err := wb.db.PageStrokes(page)
	if err != nil {
		log.Printf("whiteboard: load page %q error: %v", page, err)
		strokes = nil
	}
	if strokes == nil {
		strokes = []json.RawMessage{}
	}
	wb.pages[page] = strokes
}

// writer batches pending strokes into transactions
func (wb *Whiteboard) writer() {
	defer wb.wg.Done()

	batch := make([]pageStroke, 0, 64)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := wb.db.InsertStrokes(batch); err != nil {
			log.Printf("whiteboard: batch insert error: %v", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case s := <-wb.pending:
			batch = append(batch, s)
			if len(batch) >= 50 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-wb.stopCh:
			for {
				select {
				case s := <-wb.pending:
					batch = append(batch, s)
					continue
				default:
				}
				break
			}
			flush()
			return
		}
	}
}

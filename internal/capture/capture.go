// Package capture persists detected verses to a SQLite log. It also owns
// cross-call duplicate suppression: the same reference detected again inside
// the dedup window is dropped here rather than written twice, keeping the
// detector itself stateless across transcript segments.
package capture

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	_ "modernc.org/sqlite"

	"github.com/FocuswithJustin/VerseFinder/core/detect"
)

// DefaultDedupWindow is how long a reference stays suppressed after being
// recorded. Preachers repeat the verse they are reading; thirty seconds
// absorbs the echo without hiding a genuine revisit later in the sermon.
const DefaultDedupWindow = 30 * time.Second

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("capture: store is closed")

// timeLayout is RFC 3339 with fixed nanosecond width. Timestamps are stored
// in UTC so the text column sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS detections (
	id          TEXT PRIMARY KEY,
	book_code   TEXT NOT NULL,
	reference   TEXT NOT NULL,
	chapter     INTEGER NOT NULL,
	verse_start INTEGER NOT NULL,
	verse_end   INTEGER NOT NULL,
	confidence  TEXT NOT NULL,
	source_text TEXT NOT NULL,
	detected_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_detections_reference ON detections(reference, detected_at);
`

// Detection is one persisted row.
type Detection struct {
	ID         string    `json:"id"`
	BookCode   string    `json:"book_code"`
	Reference  string    `json:"reference"`
	Chapter    int       `json:"chapter"`
	VerseStart int       `json:"verse_start"`
	VerseEnd   int       `json:"verse_end,omitempty"`
	Confidence string    `json:"confidence"`
	SourceText string    `json:"source_text"`
	DetectedAt time.Time `json:"detected_at"`
}

// Store is the detection log. Safe for concurrent use; database/sql
// serializes access to the underlying connection.
type Store struct {
	db          *sql.DB
	dedupWindow time.Duration

	mu     sync.Mutex
	closed bool
}

// Open opens or creates the log at path. A dedupWindow of 0 selects
// DefaultDedupWindow; a negative window disables suppression.
func Open(path string, dedupWindow time.Duration) (*Store, error) {
	if dedupWindow == 0 {
		dedupWindow = DefaultDedupWindow
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening capture db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating capture schema: %w", err)
	}
	return &Store{db: db, dedupWindow: dedupWindow}, nil
}

// Close releases the database handle. Safe to call concurrently with other
// operations and more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Record writes a detection unless the same reference was recorded within
// the dedup window of the detection's own timestamp. It returns the stored
// row and whether a write happened.
func (s *Store) Record(ctx context.Context, v detect.DetectedVerse) (Detection, bool, error) {
	if s.isClosed() {
		return Detection{}, false, ErrClosed
	}
	refStr := v.Reference.String()

	if s.dedupWindow > 0 {
		var last string
		err := s.db.QueryRowContext(ctx,
			`SELECT detected_at FROM detections WHERE reference = ? ORDER BY detected_at DESC LIMIT 1`,
			refStr).Scan(&last)
		switch {
		case err == sql.ErrNoRows:
			// first sighting
		case err != nil:
			return Detection{}, false, fmt.Errorf("querying last detection: %w", err)
		default:
			lastAt, perr := time.Parse(timeLayout, last)
			if perr == nil && v.DetectedAt.Sub(lastAt) < s.dedupWindow {
				return Detection{}, false, nil
			}
		}
	}

	d := Detection{
		ID:         uuid.NewString(),
		BookCode:   v.Reference.BookCode,
		Reference:  refStr,
		Chapter:    v.Reference.Chapter,
		VerseStart: v.Reference.VerseStart,
		VerseEnd:   v.Reference.VerseEnd,
		Confidence: v.Confidence.String(),
		SourceText: v.SourceText,
		DetectedAt: v.DetectedAt,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (id, book_code, reference, chapter, verse_start, verse_end, confidence, source_text, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.BookCode, d.Reference, d.Chapter, d.VerseStart, d.VerseEnd,
		d.Confidence, d.SourceText, d.DetectedAt.UTC().Format(timeLayout))
	if err != nil {
		return Detection{}, false, fmt.Errorf("inserting detection: %w", err)
	}
	return d, true, nil
}

// List returns the most recent detections, newest first. A limit of 0 means
// no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Detection, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	q := `SELECT id, book_code, reference, chapter, verse_start, verse_end, confidence, source_text, detected_at
	      FROM detections ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing detections: %w", err)
	}
	defer rows.Close()

	var out []Detection
	for rows.Next() {
		var d Detection
		var at string
		if err := rows.Scan(&d.ID, &d.BookCode, &d.Reference, &d.Chapter,
			&d.VerseStart, &d.VerseEnd, &d.Confidence, &d.SourceText, &at); err != nil {
			return nil, fmt.Errorf("scanning detection: %w", err)
		}
		d.DetectedAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parsing detected_at %q: %w", at, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ExportXZ streams the full log to w as xz-compressed JSON Lines,
// oldest first.
func (s *Store) ExportXZ(ctx context.Context, w io.Writer) error {
	if s.isClosed() {
		return ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, book_code, reference, chapter, verse_start, verse_end, confidence, source_text, detected_at
		 FROM detections ORDER BY detected_at ASC`)
	if err != nil {
		return fmt.Errorf("exporting detections: %w", err)
	}
	defer rows.Close()

	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating xz writer: %w", err)
	}
	enc := json.NewEncoder(xw)
	for rows.Next() {
		var d Detection
		var at string
		if err := rows.Scan(&d.ID, &d.BookCode, &d.Reference, &d.Chapter,
			&d.VerseStart, &d.VerseEnd, &d.Confidence, &d.SourceText, &at); err != nil {
			return fmt.Errorf("scanning detection: %w", err)
		}
		d.DetectedAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return fmt.Errorf("parsing detected_at %q: %w", at, err)
		}
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encoding detection: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return xw.Close()
}

// Package journal keeps a local record of found solutions and transaction outcomes.
//
// The journal is advisory. The coordinator writes to it but never reads it back; the remote
// program is the only authority on what was submitted.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/poi-miner/post-miner/epoch"
	"github.com/poi-miner/post-miner/shared"
	"github.com/poi-miner/post-miner/vocabulary"
)

// FileName is the name of the journal database inside the data directory.
const FileName = "journal.db"

const schema = `
CREATE TABLE IF NOT EXISTS solutions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded   INTEGER NOT NULL,
	epoch      INTEGER NOT NULL,
	nonce      INTEGER NOT NULL,
	hash       TEXT NOT NULL,
	text_len   INTEGER NOT NULL,
	words      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_solutions_epoch ON solutions(epoch);

CREATE TABLE IF NOT EXISTS outcomes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded   INTEGER NOT NULL,
	action     TEXT NOT NULL,
	epoch      INTEGER NOT NULL,
	signature  TEXT NOT NULL,
	error      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_epoch ON outcomes(epoch);
`

// Entry is one journal line. Solutions have Action "solution".
type Entry struct {
	Recorded  time.Time
	Action    string
	Epoch     uint64
	Nonce     uint64
	Hash      string
	TextLen   int
	Words     string
	Signature string
	Error     string
}

// ActionSolution marks solution entries returned by List.
const ActionSolution = "solution"

// Journal is a SQLite backed epoch.Recorder.
type Journal struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	now    func() time.Time
}

var _ epoch.Recorder = (*Journal)(nil)

// Open opens or creates the journal in dataDir.
func Open(dataDir string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY between the coordinator and CLI readers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	logger.Debug("journal: opened", zap.String("path", path))
	return &Journal{db: db, path: path, logger: logger, now: time.Now}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) RecordSolution(ctx context.Context, sol *shared.Solution, words vocabulary.Vocabulary) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO solutions (recorded, epoch, nonce, hash, text_len, words) VALUES (?, ?, ?, ?, ?, ?)`,
		j.now().UnixNano(), int64(sol.Epoch), int64(sol.Nonce), hex.EncodeToString(sol.Hash[:]), len(sol.Text), words.String(),
	)
	if err != nil {
		return fmt.Errorf("record solution: %w", err)
	}
	return nil
}

func (j *Journal) RecordOutcome(ctx context.Context, o epoch.Outcome) error {
	var errText string
	if o.Err != nil {
		errText = o.Err.Error()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO outcomes (recorded, action, epoch, signature, error) VALUES (?, ?, ?, ?, ?)`,
		j.now().UnixNano(), o.Action, int64(o.Epoch), o.Signature, errText,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// List returns up to limit most recent entries, newest first. A limit of zero returns everything.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
SELECT recorded, action, epoch, nonce, hash, text_len, words, signature, error FROM (
	SELECT recorded, 'solution' AS action, epoch, nonce, hash, text_len, words, '' AS signature, '' AS error FROM solutions
	UNION ALL
	SELECT recorded, action, epoch, 0, '', 0, '', signature, error FROM outcomes
) ORDER BY recorded DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			recorded  int64
			ep, nonce int64
		)
		if err := rows.Scan(&recorded, &e.Action, &ep, &nonce, &e.Hash, &e.TextLen, &e.Words, &e.Signature, &e.Error); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Recorded = time.Unix(0, recorded)
		e.Epoch = uint64(ep)
		e.Nonce = uint64(nonce)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

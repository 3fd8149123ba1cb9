package db

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yumyai/orthologs/logger"
	"github.com/yumyai/orthologs/pkg/model"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS orthologs (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		sc_id   TEXT NOT NULL DEFAULT '',
		sc_name TEXT NOT NULL DEFAULT '',
		km_ids  TEXT NOT NULL DEFAULT '[]',
		doc     TEXT NOT NULL
	);
`

// The text index is optional. Without it every combined query is rejected
// and the caller falls back to pattern clauses.
const sqliteTextIndex = `
	CREATE VIRTUAL TABLE IF NOT EXISTS orthologs_fts USING fts5(body);
`

// SQLiteStore keeps ortholog documents as JSON in a local SQLite file, the
// same way the gene table is shipped alongside the server.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and creates when needed) the store at path. When
// withTextIndex is set an FTS5 table is created for the full-text clause.
func OpenSQLiteStore(ctx context.Context, path string, withTextIndex bool) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	if withTextIndex {
		if _, err := db.ExecContext(ctx, sqliteTextIndex); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: create text index: %w", err)
		}
	}

	logger.Info("Open ortholog database on", zap.String("DB_LOC", path), zap.Bool("text_index", withTextIndex))
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Find(ctx context.Context, filter Filter) ([]model.OrthologRecord, error) {
	where, args := sqliteWhere(filter)
	query := `SELECT o.doc FROM orthologs o WHERE ` + where + ` ORDER BY o.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	defer rows.Close()

	records := []model.OrthologRecord{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite: scan ortholog row: %w", err)
		}
		var rec model.OrthologRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("sqlite: decode ortholog document: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError(err)
	}
	return records, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}

// Count returns the number of stored documents.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orthologs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count orthologs: %w", err)
	}
	return n, nil
}

// Put appends one document. The text index, when present, receives every id,
// name and description of both sides.
func (s *SQLiteStore) Put(ctx context.Context, rec model.OrthologRecord) error {
	return s.putAll(ctx, []model.OrthologRecord{rec})
}

// ImportJSON loads documents from r, either a JSON array or one document per
// line. Nothing is stored unless every document decodes and inserts. It
// returns the number of documents stored.
func (s *SQLiteStore) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	recs, err := decodeSeed(r)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := s.putAll(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

func (s *SQLiteStore) putAll(ctx context.Context, recs []model.OrthologRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fail to begin tx %w", err)
	}
	defer tx.Rollback()

	hasIndex, err := s.hasTextIndex(ctx, tx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := putTx(ctx, tx, rec, hasIndex); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func putTx(ctx context.Context, tx *sql.Tx, rec model.OrthologRecord, hasIndex bool) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite: encode ortholog document: %w", err)
	}

	var scID, scName string
	if rec.SC != nil {
		scID, scName = rec.SC.ID.String(), rec.SC.Name.String()
	}
	kmIDs := "[]"
	if rec.KM != nil && len(rec.KM.IDs) > 0 {
		if kmIDs, err = rawJSON(rec.KM.IDs); err != nil {
			return fmt.Errorf("sqlite: encode km ids: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orthologs (sc_id, sc_name, km_ids, doc) VALUES (?, ?, ?, ?)`,
		scID, scName, kmIDs, string(doc))
	if err != nil {
		return fmt.Errorf("sqlite: insert ortholog: %w", err)
	}
	if !hasIndex {
		return nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: read inserted id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orthologs_fts (rowid, body) VALUES (?, ?)`, id, textBody(rec)); err != nil {
		return fmt.Errorf("sqlite: index ortholog: %w", err)
	}
	return nil
}

// rawJSON encodes v without HTML escaping, so the stored text holds the same
// characters a pattern clause is matched against.
func rawJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeSeed(r io.Reader) ([]model.OrthologRecord, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(1)
	for err == nil && len(bytes.TrimSpace(head)) == 0 {
		if _, err = br.ReadByte(); err == nil {
			head, err = br.Peek(1)
		}
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read seed: %w", err)
	}

	dec := json.NewDecoder(br)
	if head[0] == '[' {
		var recs []model.OrthologRecord
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("sqlite: decode seed array: %w", err)
		}
		return recs, nil
	}

	var recs []model.OrthologRecord
	for {
		var rec model.OrthologRecord
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			return recs, nil
		} else if err != nil {
			return nil, fmt.Errorf("sqlite: decode seed document %d: %w", len(recs)+1, err)
		}
		recs = append(recs, rec)
	}
}

func (s *SQLiteStore) hasTextIndex(ctx context.Context, tx *sql.Tx) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'orthologs_fts'`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: look up text index: %w", err)
	}
	return n > 0, nil
}

func textBody(rec model.OrthologRecord) string {
	var parts []string
	add := func(g *model.GeneRecord) {
		parts = append(parts, g.ID.String())
		parts = append(parts, g.IDs...)
		parts = append(parts, g.Name.String(), g.Description.String())
	}
	if rec.SC != nil {
		add(&rec.SC.GeneRecord)
	}
	if rec.KM != nil {
		add(&rec.KM.GeneRecord)
	}
	return strings.Join(parts, " ")
}

var sqliteColumns = map[Field]string{
	FieldSCID:   "o.sc_id",
	FieldSCName: "o.sc_name",
	FieldKMIDs:  "o.km_ids", // the list serialized as JSON text
}

// sqliteWhere renders the OR group. LIKE is case-insensitive for ASCII, which
// covers gene identifiers.
func sqliteWhere(filter Filter) (string, []any) {
	if len(filter.Any) == 0 {
		return "0", nil
	}

	var (
		parts []string
		args  []any
	)
	for _, c := range filter.Any {
		switch c.Kind {
		case ClausePattern:
			parts = append(parts, sqliteColumns[c.Field]+` LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(c.Value)+"%")
		case ClauseFullText:
			parts = append(parts, `o.id IN (SELECT rowid FROM orthologs_fts WHERE orthologs_fts MATCH ?)`)
			args = append(args, ftsPhrase(c.Value))
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ftsPhrase quotes the query so FTS5 never parses user text as syntax.
func ftsPhrase(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func classifySQLiteError(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_ERROR {
		return err
	}
	msg := strings.ToLower(se.Error())
	if strings.Contains(msg, "no such table: orthologs_fts") ||
		strings.Contains(msg, "unable to use function match") {
		return &PlannerRejectedError{Store: "sqlite", Err: err}
	}
	return err
}

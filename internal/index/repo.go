package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/models"
	"github.com/starford/semconv/internal/semgraph"
)

// ReplaceFile stores the conversion results of one file, replacing whatever
// was indexed for it before, within a transaction.
func (db *DB) ReplaceFile(f models.CorpusFile, sentences []models.Sentence, failures []models.Failure) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, sentences, failed, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			sentences  = excluded.sentences,
			failed     = excluded.failed,
			run_id     = excluded.run_id,
			updated_at = excluded.updated_at
	`, f.Path, f.Checksum, len(sentences), len(failures), f.RunID, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	ftsDeleteFile(tx, f.Path)
	if _, err := tx.Exec(`DELETE FROM sentences WHERE file = ?`, f.Path); err != nil {
		return fmt.Errorf("index: clear sentences: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM failures WHERE file = ?`, f.Path); err != nil {
		return fmt.Errorf("index: clear failures: %w", err)
	}

	if len(sentences) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO sentences (file, ordinal, sentence_id, text, tokens, units, graph, conllu)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare sentence insert: %w", err)
		}
		defer stmt.Close()
		for _, s := range sentences {
			graph, err := json.Marshal(s.Graph)
			if err != nil {
				return fmt.Errorf("index: encode graph %s: %w", s.SentenceID, err)
			}
			if _, err := stmt.Exec(f.Path, s.Ordinal, s.SentenceID, s.Text, s.Tokens, s.Units, string(graph), s.CoNLLU); err != nil {
				return fmt.Errorf("index: insert sentence: %w", err)
			}
			if err := ftsUpsert(tx, f.Path, s.Ordinal, s.SentenceID, s.Text); err != nil {
				return err
			}
		}
	}

	if len(failures) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO failures (file, ordinal, sentence_id, error) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare failure insert: %w", err)
		}
		defer stmt.Close()
		for _, fl := range failures {
			if _, err := stmt.Exec(f.Path, fl.Ordinal, fl.SentenceID, fl.Error); err != nil {
				return fmt.Errorf("index: insert failure: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file together with its sentences and failures.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteFile(tx, path)
	_, _ = tx.Exec(`DELETE FROM sentences WHERE file = ?`, path)
	_, _ = tx.Exec(`DELETE FROM failures WHERE file = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListFiles returns every indexed file ordered by path.
func (db *DB) ListFiles() ([]models.CorpusFile, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum, sentences, failed, run_id, updated_at
		FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list files: %w", err)
	}
	defer rows.Close()

	var out []models.CorpusFile
	for rows.Next() {
		var f models.CorpusFile
		if err := rows.Scan(&f.Path, &f.Checksum, &f.Sentences, &f.Failed, &f.RunID, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetSentence returns the first sentence with the given id, graph and
// CoNLL-U included. It returns apperr.ErrNotFound when there is none.
func (db *DB) GetSentence(sentenceID string) (*models.Sentence, error) {
	var (
		s     models.Sentence
		graph string
	)
	err := db.conn.QueryRow(`
		SELECT file, ordinal, sentence_id, text, tokens, units, graph, conllu
		FROM sentences WHERE sentence_id = ?
		ORDER BY file, ordinal LIMIT 1`, sentenceID).
		Scan(&s.File, &s.Ordinal, &s.SentenceID, &s.Text, &s.Tokens, &s.Units, &graph, &s.CoNLLU)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: sentence %q: %w", sentenceID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get sentence: %w", err)
	}
	var doc semgraph.Document
	if err := json.Unmarshal([]byte(graph), &doc); err != nil {
		return nil, fmt.Errorf("index: decode graph %s: %w", sentenceID, err)
	}
	s.Graph = &doc
	return &s, nil
}

// ListSentences returns a page of sentence summaries (no graph, no CoNLL-U)
// and the total count. An empty file lists the whole corpus.
func (db *DB) ListSentences(file string, limit, offset int) ([]models.Sentence, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := "", []any{}
	if file != "" {
		where, args = "WHERE file = ?", append(args, file)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM sentences `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count sentences: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT file, ordinal, sentence_id, text, tokens, units
		FROM sentences `+where+`
		ORDER BY file, ordinal
		LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list sentences: %w", err)
	}
	defer rows.Close()

	var out []models.Sentence
	for rows.Next() {
		var s models.Sentence
		if err := rows.Scan(&s.File, &s.Ordinal, &s.SentenceID, &s.Text, &s.Tokens, &s.Units); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Failures returns recorded conversion failures, optionally for one file.
func (db *DB) Failures(file string, limit int) ([]models.Failure, error) {
	if limit <= 0 {
		limit = 100
	}
	where, args := "", []any{}
	if file != "" {
		where, args = "WHERE file = ?", append(args, file)
	}
	rows, err := db.conn.Query(`
		SELECT file, ordinal, sentence_id, error
		FROM failures `+where+`
		ORDER BY file, ordinal
		LIMIT ?`, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("index: failures: %w", err)
	}
	defer rows.Close()

	var out []models.Failure
	for rows.Next() {
		var f models.Failure
		if err := rows.Scan(&f.File, &f.Ordinal, &f.SentenceID, &f.Error); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

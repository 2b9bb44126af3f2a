//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/semconv/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS sentences_fts USING fts5(
			file UNINDEXED,
			ordinal UNINDEXED,
			sentence_id UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, file string, ordinal int, sentenceID, text string) error {
	_, err := tx.Exec(`INSERT INTO sentences_fts (file, ordinal, sentence_id, text) VALUES (?, ?, ?, ?)`,
		file, ordinal, sentenceID, text)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteFile(tx *sql.Tx, file string) {
	_, _ = tx.Exec(`DELETE FROM sentences_fts WHERE file = ?`, file)
}

// Search performs an FTS5 full-text search over sentence text and returns
// matches with snippets.
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT file,
		       sentence_id,
		       snippet(sentences_fts, 3, '<b>', '</b>', '...', 32)
		FROM sentences_fts
		WHERE sentences_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.File, &h.SentenceID, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

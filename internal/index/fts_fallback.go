//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/semconv/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on sentences.text.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ int, _, _ string) error {
	return nil
}

func ftsDeleteFile(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT file, sentence_id, substr(text, 1, 200)
		FROM sentences
		WHERE text LIKE ? OR sentence_id = ?
		ORDER BY file, ordinal
		LIMIT ?
	`, "%"+query+"%", query, limit)
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

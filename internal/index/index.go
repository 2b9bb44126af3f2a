package index

import "github.com/starford/semconv/internal/models"

// CorpusIndex defines the interface for sentence indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type CorpusIndex interface {
	ReplaceFile(f models.CorpusFile, sentences []models.Sentence, failures []models.Failure) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListFiles() ([]models.CorpusFile, error)
	GetSentence(sentenceID string) (*models.Sentence, error)
	ListSentences(file string, limit, offset int) ([]models.Sentence, int, error)
	Failures(file string, limit int) ([]models.Failure, error)
	Search(query string, limit int) ([]models.SearchHit, error)
	Close() error
}

// Verify *DB satisfies CorpusIndex at compile time.
var _ CorpusIndex = (*DB)(nil)

// Package sqlite implements gias.ChunkStore on an embedded SQLite database.
//
// Embeddings are stored as little-endian float32 blobs and searched by
// brute-force cosine similarity, which is adequate for single-repository
// indexes of a few thousand chunks.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fwojciec/gias"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrInvalidVector is returned when a stored embedding blob is malformed.
var ErrInvalidVector = errors.New("invalid vector encoding")

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	repository TEXT NOT NULL,
	source TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS chunks_repository ON chunks (repository);
`

// Compile-time interface verification.
var _ gias.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements gias.ChunkStore.
type ChunkStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
// Use ":memory:" for a transient store.
func Open(path string) (*ChunkStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize chunk store: %w", err)
	}
	return &ChunkStore{db: db}, nil
}

// Close closes the database.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

// Replace deletes the repository's chunks and inserts the given ones in one transaction.
// Chunks without an ID get a random one.
func (s *ChunkStore) Replace(ctx context.Context, repo gias.Repository, chunks []gias.Chunk) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM chunks WHERE repository = ?`, repo.FullName()); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (id, repository, source, content, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err = stmt.ExecContext(ctx, id, repo.FullName(), c.Source, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.Source, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Search returns up to k chunks ordered by descending cosine similarity to vector.
func (s *ChunkStore) Search(ctx context.Context, repo gias.Repository, vector []float32, k int) ([]gias.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, content, embedding FROM chunks WHERE repository = ? ORDER BY rowid`, repo.FullName())
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		chunk gias.Chunk
		score float64
	}
	var results []scored
	for rows.Next() {
		var c gias.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Embedding, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		results = append(results, scored{chunk: c, score: cosine(vector, c.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}
	out := make([]gias.Chunk, len(results))
	for i, r := range results {
		out[i] = r.chunk
	}
	return out, nil
}

// Count returns the number of chunks stored for repo.
func (s *ChunkStore) Count(ctx context.Context, repo gias.Repository) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE repository = ?`, repo.FullName()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidVector, len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// cosine returns 0 for mismatched or zero-length vectors.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/runehall/lorebook/internal/adapters/driven/vector/memory"
	"github.com/runehall/lorebook/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/runehall/lorebook/internal/core/domain"
	"github.com/runehall/lorebook/internal/core/ports/driven"
)

// Store is a SQLite-backed collection store. Vectors are kept as
// little-endian float32 blobs and scored in process; at rulebook scale
// a brute-force scan over a few thousand chunks is well under a
// millisecond.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.CollectionStore = (*Store)(nil)

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lorebook/data/vectors.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lorebook", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// WAL mode for better concurrency between indexer and queries.
	// foreign_keys goes in the DSN so every pooled connection gets it,
	// not just the one a bare PRAGMA statement happens to run on.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Create makes a new collection, replacing any existing one of the
// same name along with its chunks.
func (s *Store) Create(ctx context.Context, name string, dimension int, distance domain.Distance) (driven.VectorIndex, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is empty", domain.ErrInvalidArgument)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidArgument, dimension)
	}
	if !distance.IsValid() {
		return nil, fmt.Errorf("%w: unknown distance %q", domain.ErrInvalidArgument, distance)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Chunks are deleted explicitly rather than through the foreign key
	// cascade: full replacement must not depend on a per-connection pragma.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", name); err != nil {
		return nil, fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return nil, fmt.Errorf("clearing collection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collections (name, dimension, distance, created_at)
		VALUES (?, ?, ?, ?)
	`, name, dimension, string(distance), time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return &collectionIndex{
		store:     s,
		name:      name,
		dimension: dimension,
		distance:  distance,
	}, nil
}

// Load returns an existing collection or domain.ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (driven.VectorIndex, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT dimension, distance FROM collections WHERE name = ?
	`, name)

	var dimension int
	var distance string
	if err := row.Scan(&dimension, &distance); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: collection %q", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("scanning collection: %w", err)
	}

	return &collectionIndex{
		store:     s,
		name:      name,
		dimension: dimension,
		distance:  domain.Distance(distance),
	}, nil
}

// Drop removes a collection and its chunks. Dropping a missing
// collection is not an error.
func (s *Store) Drop(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", name); err != nil {
		return fmt.Errorf("dropping chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns info for all collections, sorted by name.
func (s *Store) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.dimension, c.distance, c.created_at, COUNT(ch.id)
		FROM collections c
		LEFT JOIN chunks ch ON ch.collection = c.name
		GROUP BY c.name
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var infos []domain.CollectionInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		var info domain.CollectionInfo
		var distance string
		var createdAt sql.NullTime
		if err := rows.Scan(&info.Name, &info.Dimension, &distance, &createdAt, &info.Chunks); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		info.Distance = domain.Distance(distance)
		if createdAt.Valid {
			info.CreatedAt = createdAt.Time
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}

	return infos, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// collectionIndex implements driven.VectorIndex over a single
// collection's rows.
type collectionIndex struct {
	store     *Store
	name      string
	dimension int
	distance  domain.Distance
}

var _ driven.VectorIndex = (*collectionIndex)(nil)

// Upsert inserts or replaces chunks by ID within one transaction.
func (ix *collectionIndex) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != ix.dimension {
			return fmt.Errorf("%w: chunk %s has dimension %d, collection expects %d",
				domain.ErrInvalidArgument, c.ID, len(c.Embedding), ix.dimension)
		}
	}

	tx, err := ix.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, id, document_id, page, content, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document_id = excluded.document_id,
			page = excluded.page,
			content = excluded.content,
			position = excluded.position,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, ix.name, c.ID, c.DocumentID, c.Page,
			c.Content, c.Position, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search loads every stored vector, scores it against the query and
// returns the top k. Ties are broken by lower chunk position.
func (ix *collectionIndex) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, collection expects %d",
			domain.ErrInvalidArgument, len(query), ix.dimension)
	}

	rows, err := ix.store.db.QueryContext(ctx, `
		SELECT id, document_id, page, content, position, embedding
		FROM chunks WHERE collection = ?
	`, ix.name)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Page, &c.Content, &c.Position, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(blob)
		results = append(results, domain.SearchResult{
			Chunk: c,
			Score: memory.Similarity(ix.distance, query, c.Embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Position < results[j].Chunk.Position
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}

// Count reports the number of stored chunks.
func (ix *collectionIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := ix.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", ix.name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Close is a no-op; the connection belongs to the Store.
func (ix *collectionIndex) Close() error { return nil }

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

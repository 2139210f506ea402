package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/siteassist/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "siteassist.db"

// Store is a SQLite-based storage that provides access to every
// persistent store interface through wrapper types.
type Store struct {
	db    *sql.DB
	path  string
	clock func() time.Time
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.siteassist/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".siteassist", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:    db,
		path:  dbPath,
		clock: time.Now,
	}

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

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// IntentStore returns an IntentStore interface backed by this store.
func (s *Store) IntentStore() driven.IntentStore {
	return &intentStore{store: s}
}

// EmbeddingCache returns an EmbeddingCacheStore interface backed by this store.
func (s *Store) EmbeddingCache() driven.EmbeddingCacheStore {
	return &embeddingCache{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// OTPStore returns an OTPStore interface backed by this store.
func (s *Store) OTPStore() driven.OTPStore {
	return &otpStore{store: s}
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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
		if _, err := s.db.Exec("INSERT OR IGNORE INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, title, content, category, keywords, url, created_at, updated_at`

// SaveDocument stores or updates a document. Updates keep the row's
// position in listing order and its original creation time.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	keywords, err := marshalStrings(doc.Keywords)
	if err != nil {
		return fmt.Errorf("marshalling keywords: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			category = excluded.category,
			keywords = excluded.keywords,
			url = excluded.url,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Content, doc.Category, keywords, doc.URL,
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks, replacing any with the same ID.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			position = excluded.position
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content, chunk.Index); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, position
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return collectChunks(rows)
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, position
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chunk, err
}

// DeleteDocument removes a document. Its chunks go with it through
// ON DELETE CASCADE.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns every document in the order it was first saved.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ListChunks returns every chunk, in document order then chunk index.
func (s *documentStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.content, c.position
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY d.rowid, c.position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return collectChunks(rows)
}

// ==================== Intent Store ====================

// intentStore implements driven.IntentStore.
type intentStore struct {
	store *Store
}

var _ driven.IntentStore = (*intentStore)(nil)

// ReplaceAll swaps the stored set for intents in one transaction.
func (s *intentStore) ReplaceAll(ctx context.Context, intents []domain.Intent) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM intents"); err != nil {
		return fmt.Errorf("clearing intents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO intents (position, name, keywords, patterns, responses)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, intent := range intents {
		keywords, err := marshalStrings(intent.Keywords)
		if err != nil {
			return fmt.Errorf("marshalling keywords for %s: %w", intent.Name, err)
		}
		patterns, err := marshalStrings(intent.Patterns)
		if err != nil {
			return fmt.Errorf("marshalling patterns for %s: %w", intent.Name, err)
		}
		responses, err := marshalStrings(intent.Responses)
		if err != nil {
			return fmt.Errorf("marshalling responses for %s: %w", intent.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, i, intent.Name, keywords, patterns, responses); err != nil {
			return fmt.Errorf("saving intent %s: %w", intent.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// List returns the stored intents in their original order.
func (s *intentStore) List(ctx context.Context) ([]domain.Intent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT name, keywords, patterns, responses
		FROM intents ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying intents: %w", err)
	}
	defer rows.Close()

	var intents []domain.Intent //nolint:prealloc // size unknown from query
	for rows.Next() {
		var intent domain.Intent
		var keywords, patterns, responses string
		if err := rows.Scan(&intent.Name, &keywords, &patterns, &responses); err != nil {
			return nil, fmt.Errorf("scanning intent: %w", err)
		}
		if intent.Keywords, err = unmarshalStrings(keywords); err != nil {
			return nil, fmt.Errorf("unmarshalling keywords for %s: %w", intent.Name, err)
		}
		if intent.Patterns, err = unmarshalStrings(patterns); err != nil {
			return nil, fmt.Errorf("unmarshalling patterns for %s: %w", intent.Name, err)
		}
		if intent.Responses, err = unmarshalStrings(responses); err != nil {
			return nil, fmt.Errorf("unmarshalling responses for %s: %w", intent.Name, err)
		}
		intents = append(intents, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating intents: %w", err)
	}
	return intents, nil
}

// ==================== Embedding Cache ====================

// embeddingCache implements driven.EmbeddingCacheStore.
type embeddingCache struct {
	store *Store
}

var _ driven.EmbeddingCacheStore = (*embeddingCache)(nil)

// Load returns the stored cache, or nil when nothing is stored. A vector
// blob whose length is not a multiple of four is reported as corrupt.
func (c *embeddingCache) Load(ctx context.Context) (*domain.EmbeddingCache, error) {
	cache := &domain.EmbeddingCache{}
	err := c.store.db.QueryRowContext(ctx,
		"SELECT corpus_hash, model, generated_at FROM embedding_cache WHERE id = 1",
	).Scan(&cache.Hash, &cache.Model, &cache.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading embedding cache: %w", err)
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT intent_name, intent_index, vector, generated_at
		FROM embedding_records ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embedding records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.EmbeddingRecord
		var blob []byte
		if err := rows.Scan(&rec.IntentName, &rec.IntentIndex, &blob, &rec.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding record: %w", err)
		}
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: vector for %q is %d bytes", domain.ErrCorruptCache, rec.IntentName, len(blob))
		}
		rec.Vector = bytesToFloat32Slice(blob)
		cache.Records = append(cache.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedding records: %w", err)
	}
	return cache, nil
}

// Save replaces the stored cache.
func (c *embeddingCache) Save(ctx context.Context, cache *domain.EmbeddingCache) error {
	if cache == nil {
		return domain.ErrInvalidInput
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM embedding_records"); err != nil {
		return fmt.Errorf("clearing embedding records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO embedding_cache (id, corpus_hash, model, generated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			corpus_hash = excluded.corpus_hash,
			model = excluded.model,
			generated_at = excluded.generated_at
	`, cache.Hash, cache.Model, cache.GeneratedAt.UTC()); err != nil {
		return fmt.Errorf("saving embedding cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_records (position, intent_name, intent_index, vector, generated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range cache.Records {
		if _, err := stmt.ExecContext(ctx, i, rec.IntentName, rec.IntentIndex,
			float32SliceToBytes(rec.Vector), rec.GeneratedAt.UTC()); err != nil {
			return fmt.Errorf("saving embedding for %s: %w", rec.IntentName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var keywords string

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Category, &keywords,
		&doc.URL, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	var err error
	if doc.Keywords, err = unmarshalStrings(keywords); err != nil {
		return nil, fmt.Errorf("unmarshalling keywords: %w", err)
	}
	return &doc, nil
}

func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return &chunk, nil
}

func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// marshalStrings encodes a string list as a JSON array. Nil encodes as [].
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalStrings decodes a JSON array, returning nil for an empty one.
func unmarshalStrings(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice.
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

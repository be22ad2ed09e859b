package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rescout-labs/rescout/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.rescout/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".rescout", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
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

// CandidateStore returns a CandidateStore interface backed by this store.
func (s *Store) CandidateStore() driven.CandidateStore {
	return &candidateStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
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

const documentColumns = `id, namespace, recruiter_id, filename, content_type, size_bytes,
	fingerprint, blob_key, status, error_detail, extracted_text, created_at, updated_at`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			recruiter_id = excluded.recruiter_id,
			filename = excluded.filename,
			content_type = excluded.content_type,
			size_bytes = excluded.size_bytes,
			fingerprint = excluded.fingerprint,
			blob_key = excluded.blob_key,
			status = excluded.status,
			error_detail = excluded.error_detail,
			extracted_text = excluded.extracted_text,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Namespace, doc.RecruiterID, doc.Filename, doc.ContentType, doc.SizeBytes,
		doc.Fingerprint, doc.BlobKey, string(doc.Status), doc.ErrorDetail, doc.ExtractedText,
		doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// FindByFingerprint returns the live document for a fingerprint if one
// exists, otherwise the most recent failed one. A failed document may
// coexist with a later successful re-ingest of the same content.
func (s *documentStore) FindByFingerprint(ctx context.Context, namespace, fingerprint string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE namespace = ? AND fingerprint = ?
		ORDER BY (status = 'failed') ASC, created_at DESC
		LIMIT 1
	`, namespace, fingerprint)

	return scanDocument(row)
}

// UpdateStatus records a lifecycle transition.
func (s *documentStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errDetail string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, error_detail = ?, updated_at = ? WHERE id = ?
	`, string(status), errDetail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetExtractedText stores the extraction output on the document.
func (s *documentStore) SetExtractedText(ctx context.Context, id, text string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET extracted_text = ?, updated_at = ? WHERE id = ?
	`, text, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("setting extracted text: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveChunks stores chunks for a document.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, namespace, seq, text, start_offset, end_offset, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			namespace = excluded.namespace,
			seq = excluded.seq,
			text = excluded.text,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			token_count = excluded.token_count
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Namespace,
			chunk.Seq, chunk.Text, chunk.StartOffset, chunk.EndOffset, chunk.TokenCount); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document, ordered by sequence.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, namespace, seq, text, start_offset, end_offset, token_count
		FROM chunks WHERE document_id = ?
		ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Namespace, &chunk.Seq,
			&chunk.Text, &chunk.StartOffset, &chunk.EndOffset, &chunk.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, namespace, seq, text, start_offset, end_offset, token_count
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Namespace, &chunk.Seq,
		&chunk.Text, &chunk.StartOffset, &chunk.EndOffset, &chunk.TokenCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	return &chunk, nil
}

// SaveEmbeddings stores embeddings for previously saved chunks.
func (s *documentStore) SaveEmbeddings(ctx context.Context, embeddings []domain.Embedding) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_id, vector, model_tag)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			model_tag = excluded.model_tag
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, emb := range embeddings {
		blob := float32SliceToBytes(emb.Vector)
		if _, err := stmt.ExecContext(ctx, emb.ChunkID, blob, emb.ModelTag); err != nil {
			return fmt.Errorf("saving embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListDocuments returns documents in a namespace, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, namespace string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE namespace = ?
		ORDER BY created_at DESC, id
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
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

// DeleteDocument removes a document; chunks, embeddings, and the derived
// candidate profile cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *documentStore) Close() error {
	return s.store.Close()
}

// ==================== Candidate Store ====================

// candidateStore implements driven.CandidateStore.
type candidateStore struct {
	store *Store
}

var _ driven.CandidateStore = (*candidateStore)(nil)

// SaveCandidate stores or replaces a profile.
func (s *candidateStore) SaveCandidate(ctx context.Context, profile *domain.CandidateProfile) error {
	if profile.ID == "" {
		return domain.ErrInvalidInput
	}

	skillsJSON, err := json.Marshal(profile.Skills)
	if err != nil {
		return fmt.Errorf("marshalling skills: %w", err)
	}
	snippetsJSON, err := json.Marshal(profile.Snippets)
	if err != nil {
		return fmt.Errorf("marshalling snippets: %w", err)
	}

	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO candidates
			(id, namespace, recruiter_id, name, title, company, skills,
			 experience_years, summary, snippets, source_filename, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			recruiter_id = excluded.recruiter_id,
			name = excluded.name,
			title = excluded.title,
			company = excluded.company,
			skills = excluded.skills,
			experience_years = excluded.experience_years,
			summary = excluded.summary,
			snippets = excluded.snippets,
			source_filename = excluded.source_filename
	`, profile.ID, profile.Namespace, profile.RecruiterID, profile.Name, profile.Title,
		profile.Company, string(skillsJSON), profile.ExperienceYears, profile.Summary,
		string(snippetsJSON), profile.SourceFilename, profile.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a profile by ID.
func (s *candidateStore) GetCandidate(ctx context.Context, id string) (*domain.CandidateProfile, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, namespace, recruiter_id, name, title, company, skills,
			experience_years, summary, snippets, source_filename, created_at
		FROM candidates WHERE id = ?
	`, id)

	var p domain.CandidateProfile
	var skillsJSON, snippetsJSON string
	if err := row.Scan(&p.ID, &p.Namespace, &p.RecruiterID, &p.Name, &p.Title, &p.Company,
		&skillsJSON, &p.ExperienceYears, &p.Summary, &snippetsJSON, &p.SourceFilename,
		&p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning candidate: %w", err)
	}

	if err := json.Unmarshal([]byte(skillsJSON), &p.Skills); err != nil {
		return nil, fmt.Errorf("unmarshalling skills: %w", err)
	}
	if err := json.Unmarshal([]byte(snippetsJSON), &p.Snippets); err != nil {
		return nil, fmt.Errorf("unmarshalling snippets: %w", err)
	}

	return &p, nil
}

// ListCandidates returns profiles matching the filter, newest first.
// Namespace and recruiter narrowing run in SQL; skill and name-prefix
// matching happen in Go because skills are stored as JSON.
func (s *candidateStore) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.CandidateProfile, error) {
	query := `
		SELECT id, namespace, recruiter_id, name, title, company, skills,
			experience_years, summary, snippets, source_filename, created_at
		FROM candidates`

	var conds []string
	var args []any
	if filter.Namespace != "" {
		conds = append(conds, "namespace = ?")
		args = append(args, filter.Namespace)
	}
	if filter.RecruiterID != "" {
		conds = append(conds, "recruiter_id = ?")
		args = append(args, filter.RecruiterID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var profiles []domain.CandidateProfile //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.CandidateProfile
		var skillsJSON, snippetsJSON string
		if err := rows.Scan(&p.ID, &p.Namespace, &p.RecruiterID, &p.Name, &p.Title, &p.Company,
			&skillsJSON, &p.ExperienceYears, &p.Summary, &snippetsJSON, &p.SourceFilename,
			&p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}

		if err := json.Unmarshal([]byte(skillsJSON), &p.Skills); err != nil {
			return nil, fmt.Errorf("unmarshalling skills: %w", err)
		}
		if err := json.Unmarshal([]byte(snippetsJSON), &p.Snippets); err != nil {
			return nil, fmt.Errorf("unmarshalling snippets: %w", err)
		}

		if !filter.Matches(p) {
			continue
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	return profiles, nil
}

// DeleteCandidate removes a profile. Deleting a missing profile is not
// an error.
func (s *candidateStore) DeleteCandidate(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM candidates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting candidate: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

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

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status string

	if err := row.Scan(&doc.ID, &doc.Namespace, &doc.RecruiterID, &doc.Filename,
		&doc.ContentType, &doc.SizeBytes, &doc.Fingerprint, &doc.BlobKey, &status,
		&doc.ErrorDetail, &doc.ExtractedText, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	parsed, err := domain.ParseDocumentStatus(status)
	if err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}
	doc.Status = parsed

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var status string

	if err := rows.Scan(&doc.ID, &doc.Namespace, &doc.RecruiterID, &doc.Filename,
		&doc.ContentType, &doc.SizeBytes, &doc.Fingerprint, &doc.BlobKey, &status,
		&doc.ErrorDetail, &doc.ExtractedText, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	parsed, err := domain.ParseDocumentStatus(status)
	if err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}
	doc.Status = parsed

	return &doc, nil
}

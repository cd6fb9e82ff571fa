package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"propertymatch/internal/model"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS property_embeddings (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	position   INTEGER NOT NULL,
	content    TEXT NOT NULL,
	embedding  vector,
	metadata   JSONB NOT NULL,
	link       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_property_embeddings_source ON property_embeddings (source, position);

CREATE TABLE IF NOT EXISTS search_logs (
	search_id           BIGSERIAL PRIMARY KEY,
	query               TEXT NOT NULL,
	preferences         JSONB NOT NULL,
	mode                TEXT NOT NULL,
	result_count        INTEGER NOT NULL,
	returned_record_ids TEXT[] NOT NULL DEFAULT '{}',
	response_time_ms    INTEGER NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresRepository stores the corpus in PostgreSQL with pgvector embeddings
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Migrate creates the pgvector extension and tables when missing
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

type embeddingRow struct {
	ID         string               `db:"id"`
	Source     string               `db:"source"`
	Position   int                  `db:"position"`
	Content    string               `db:"content"`
	Embedding  *pgvector.Vector     `db:"embedding"`
	Metadata   model.PropertyRecord `db:"metadata"`
	Link       string               `db:"link"`
	Similarity float64              `db:"similarity"`
}

func (row embeddingRow) record() model.EmbeddingRecord {
	rec := model.EmbeddingRecord{
		ID:       row.ID,
		Source:   row.Source,
		Position: row.Position,
		Content:  row.Content,
		Metadata: row.Metadata,
		Link:     row.Link,
	}
	if row.Embedding != nil {
		rec.Embedding = row.Embedding.Slice()
	}
	return rec
}

// ReplaceSource implements CorpusStore
func (r *PostgresRepository) ReplaceSource(ctx context.Context, source string, records []model.EmbeddingRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM property_embeddings WHERE source = $1`, source); err != nil {
		return fmt.Errorf("failed to clear source %s: %w", source, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO property_embeddings (id, source, position, content, embedding, metadata, link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var vec any
		if len(rec.Embedding) > 0 {
			vec = pgvector.NewVector(rec.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, source, rec.Position, rec.Content, vec, rec.Metadata, rec.Link); err != nil {
			return fmt.Errorf("failed to insert %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadAll implements CorpusStore. Records stored without an embedding are
// included; they only take part in filter-only search.
func (r *PostgresRepository) LoadAll(ctx context.Context) ([]model.EmbeddingRecord, error) {
	var rows []embeddingRow
	query := `
		SELECT id, source, position, content, embedding, metadata, link
		FROM property_embeddings
		ORDER BY source, position
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	records := make([]model.EmbeddingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

// VectorSearch implements VectorSearcher using the pgvector cosine distance operator
func (r *PostgresRepository) VectorSearch(ctx context.Context, query []float32, limit int) ([]model.ScoredRecord, error) {
	var rows []embeddingRow
	sqlQuery := `
		SELECT id, source, position, content, embedding, metadata, link,
			1 - (embedding <=> $1) AS similarity
		FROM property_embeddings
		WHERE embedding IS NOT NULL AND vector_dims(embedding) = $3
		ORDER BY embedding <=> $1, source, position
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &rows, sqlQuery, pgvector.NewVector(query), limit, len(query)); err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}

	scored := make([]model.ScoredRecord, 0, len(rows))
	for _, row := range rows {
		scored = append(scored, model.ScoredRecord{Record: row.record(), Similarity: row.Similarity})
	}
	return scored, nil
}

// Sources implements CorpusStore
func (r *PostgresRepository) Sources(ctx context.Context) ([]model.SourceInfo, error) {
	var infos []model.SourceInfo
	query := `SELECT source, COUNT(*) AS records FROM property_embeddings GROUP BY source ORDER BY source`
	if err := r.db.SelectContext(ctx, &infos, query); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return infos, nil
}

// LogSearch records a search for later relevance analysis
func (r *PostgresRepository) LogSearch(ctx context.Context, entry model.SearchLog) error {
	logQuery := `
		INSERT INTO search_logs (query, preferences, mode, result_count, returned_record_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, logQuery,
		entry.Query, entry.Preferences, entry.Mode, entry.ResultCount, pq.Array(entry.RecordIDs), entry.TookMs)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

var (
	_ CorpusStore    = (*PostgresRepository)(nil)
	_ VectorSearcher = (*PostgresRepository)(nil)
	_ SearchLogger   = (*PostgresRepository)(nil)
)

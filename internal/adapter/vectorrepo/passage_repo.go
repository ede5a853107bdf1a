package vectorrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"retrieval-engine/internal/domain"
)

// PassageRepository implements domain.VectorSearcher over a pgvector-enabled
// passages table. The table is written only during ingestion; retrieval
// reads need no locking.
type PassageRepository struct {
	pool *pgxpool.Pool
}

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(pool *pgxpool.Pool) *PassageRepository {
	return &PassageRepository{pool: pool}
}

// Search returns up to k passages by descending cosine similarity. An empty
// corpus yields an empty slice. Connection-level failures surface as
// domain.ErrIndexUnavailable so the pipeline can degrade to lexical-only.
func (r *PassageRepository) Search(ctx context.Context, embedding []float32, k int, tagPrefix string) ([]domain.DenseHit, error) {
	query := `
		SELECT id, text, embedding, source, tag_path, resource_url,
		       certificate, chunk_index, chunk_total,
		       1 - (embedding <=> $1) AS similarity
		FROM passages
	`
	args := []interface{}{pgvector.NewVector(embedding)}
	if tagPrefix != "" {
		query += ` WHERE tag_path = $2 OR tag_path LIKE $2 || '/%'`
		args = append(args, tagPrefix)
	}
	query += fmt.Sprintf(`
		ORDER BY embedding <=> $1
		LIMIT %d`, k)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: passage search: %v", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []domain.DenseHit
	for rows.Next() {
		var (
			p   domain.Passage
			vec pgvector.Vector
			sim float64
		)
		if err := rows.Scan(
			&p.ID, &p.Text, &vec,
			&p.Metadata.Source, &p.Metadata.TagPath, &p.Metadata.ResourceURL,
			&p.Metadata.Certificate, &p.Metadata.ChunkIndex, &p.Metadata.ChunkTotal,
			&sim,
		); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		p.Embedding = vec.Slice()
		hits = append(hits, domain.DenseHit{Passage: p, Score: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: passage rows: %v", domain.ErrIndexUnavailable, err)
	}
	return hits, nil
}

var _ domain.VectorSearcher = (*PassageRepository)(nil)

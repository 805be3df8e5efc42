package db

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Content is a stored unique message text.
type Content struct {
	ID   int64
	Text string
}

// ContentsWithoutEmbedding returns the contents among ids that have no embedding yet.
func (db *DB) ContentsWithoutEmbedding(ctx context.Context, ids []int64) ([]Content, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, content FROM unique_messages
		WHERE id = ANY($1) AND embedding IS NULL
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query contents without embedding: %w", err)
	}
	defer rows.Close()

	var contents []Content

	for rows.Next() {
		var c Content
		if err := rows.Scan(&c.ID, &c.Text); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}

		contents = append(contents, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contents: %w", err)
	}

	return contents, nil
}

// SaveContentEmbedding stores the vector of one unique message.
func (db *DB) SaveContentEmbedding(ctx context.Context, id int64, embedding []float32) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE unique_messages SET embedding = $2 WHERE id = $1
	`, id, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("save content embedding: %w", err)
	}

	return nil
}

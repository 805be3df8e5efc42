package writer

import (
	"context"

	"github.com/lueurxax/telegram-feed-connector/internal/platform/observability"
	db "github.com/lueurxax/telegram-feed-connector/internal/storage"
)

// backfillEmbeddings embeds the batch's contents that have no vector yet.
// Failures are logged and never affect the committed batch.
func (w *Writer) backfillEmbeddings(ctx context.Context, ids []int64) int {
	if w.embedder == nil || w.embedStore == nil || len(ids) == 0 {
		return 0
	}

	contents, err := w.embedStore.ContentsWithoutEmbedding(ctx, ids)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to load contents for embedding")
		return 0
	}

	stored := 0

	for start := 0; start < len(contents); start += embeddingChunkSize {
		chunk := contents[start:min(start+embeddingChunkSize, len(contents))]

		n, ok := w.embedChunk(ctx, chunk)
		stored += n

		if !ok {
			break
		}
	}

	if stored > 0 {
		w.logger.Info().Int("embedded", stored).Msg("Stored content embeddings")
	}

	return stored
}

// embedChunk embeds one chunk; ok is false when the remaining chunks should be skipped.
func (w *Writer) embedChunk(ctx context.Context, chunk []db.Content) (int, bool) {
	texts := make([]string, len(chunk))
	for i, c := range chunk {
		texts[i] = c.Text
	}

	vectors, err := w.embedder.GetEmbeddings(ctx, texts)
	if err != nil {
		observability.EmbeddingErrors.Inc()
		w.logger.Warn().Err(err).Int("contents", len(chunk)).Msg("failed to embed contents")

		return 0, false
	}

	stored := 0

	for i, c := range chunk {
		if i >= len(vectors) {
			break
		}

		if err := w.embedStore.SaveContentEmbedding(ctx, c.ID, vectors[i]); err != nil {
			observability.EmbeddingErrors.Inc()
			w.logger.Warn().Err(err).Int64(logFieldContentID, c.ID).Msg("failed to store content embedding")

			continue
		}

		stored++
	}

	observability.EmbeddingsStored.Add(float64(stored))

	return stored, true
}

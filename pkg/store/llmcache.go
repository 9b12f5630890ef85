package store

import (
	"context"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// PutCachedAnalysis upserts the durable LLM analysis cache row keyed by
// content hash (spec §4.3 step 6): a fresh insert replaces whatever was
// cached for that exact prompt hash before.
func (p *Pool) PutCachedAnalysis(ctx context.Context, entry LLMAnalysisCache) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO llm_analysis_cache
			(content_hash, analysis_type, model_used, input_data, analysis_result, confidence_score, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), $7)
		ON CONFLICT (content_hash) DO UPDATE SET
			analysis_type   = $2,
			model_used      = $3,
			input_data      = $4,
			analysis_result = $5,
			confidence_score = $6,
			created_at      = now(),
			expires_at      = $7
	`, entry.ContentHash, entry.AnalysisType, entry.ModelUsed, entry.InputData, entry.AnalysisResult,
		entry.ConfidenceScore, entry.ExpiresAt)
	if err != nil {
		return sharederrors.WithKind(sharederrors.ErrStore, "upsert llm analysis cache", err)
	}
	return nil
}

// GetCachedAnalysis fetches a durable cache row by content hash, enforcing
// spec invariant 8: an entry past expires_at is never returned.
func (p *Pool) GetCachedAnalysis(ctx context.Context, contentHash string) (*LLMAnalysisCache, error) {
	var entry LLMAnalysisCache
	err := p.pool.QueryRow(ctx, `
		SELECT content_hash, analysis_type, model_used, input_data, analysis_result, confidence_score, created_at, expires_at
		FROM llm_analysis_cache
		WHERE content_hash = $1 AND expires_at > now()
	`, contentHash).Scan(&entry.ContentHash, &entry.AnalysisType, &entry.ModelUsed, &entry.InputData,
		&entry.AnalysisResult, &entry.ConfidenceScore, &entry.CreatedAt, &entry.ExpiresAt)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrNotFound, "llm analysis cache entry", err)
	}
	return &entry, nil
}

// GCExpiredAnalysisCache deletes cache rows past their expiry, keeping the
// durable cache table from growing unbounded.
func (p *Pool) GCExpiredAnalysisCache(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM llm_analysis_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "gc expired llm analysis cache", err)
	}
	return tag.RowsAffected(), nil
}

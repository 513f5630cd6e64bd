package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askboxhq/askbox/internal/core"
)

// InsertSummary persists a generated summary.
func (s *Store) InsertSummary(ctx context.Context, summary core.Summary) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(summary.ID) == "" {
		return errors.New("summary id is required")
	}
	if strings.TrimSpace(summary.QuestionID) == "" {
		return errors.New("question id is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO summaries (id, question_id, text, tokens, response_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, summary.ID, summary.QuestionID, summary.Text, summary.Tokens, summary.Responses, summary.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	return nil
}

// LatestSummary returns the most recent summary for a question, or nil when
// none exists.
func (s *Store) LatestSummary(ctx context.Context, questionID string) (*core.Summary, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, question_id, text, tokens, response_count, created_at
		FROM summaries
		WHERE question_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, questionID)

	var (
		summary   core.Summary
		createdAt int64
	)
	if err := row.Scan(&summary.ID, &summary.QuestionID, &summary.Text, &summary.Tokens, &summary.Responses, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch summary: %w", err)
	}

	summary.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &summary, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askboxhq/askbox/internal/core"
)

// InsertResponse persists a new response record and publishes it on the
// insert notification stream.
func (s *Store) InsertResponse(ctx context.Context, response core.Response) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(response.ID) == "" {
		return errors.New("response id is required")
	}
	if strings.TrimSpace(response.QuestionID) == "" {
		return errors.New("question id is required")
	}
	if strings.TrimSpace(response.Text) == "" {
		return errors.New("response text is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO responses (id, question_id, text, created_at)
		VALUES (?, ?, ?, ?)
	`, response.ID, response.QuestionID, response.Text, response.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(response)
	}

	return nil
}

// Responses returns the responses for a question, oldest first. A since time
// of zero returns all responses.
func (s *Store) Responses(ctx context.Context, questionID string, since time.Time) ([]core.Response, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, question_id, text, created_at
		FROM responses
		WHERE question_id = ? AND created_at >= ?
		ORDER BY created_at ASC
	`, questionID, since.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var responses []core.Response
	for rows.Next() {
		var (
			response  core.Response
			createdAt int64
		)
		if err := rows.Scan(&response.ID, &response.QuestionID, &response.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		response.CreatedAt = time.Unix(createdAt, 0).UTC()
		responses = append(responses, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}

	return responses, nil
}

// ResponseCount returns the number of responses recorded for a question.
func (s *Store) ResponseCount(ctx context.Context, questionID string) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var count int
	row := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses WHERE question_id = ?`, questionID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

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

// InsertQuestion persists a new question record.
func (s *Store) InsertQuestion(ctx context.Context, question core.Question) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(question.ID) == "" {
		return errors.New("question id is required")
	}
	if strings.TrimSpace(question.Text) == "" {
		return errors.New("question text is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO questions (id, text, created_by, created_at)
		VALUES (?, ?, ?, ?)
	`, question.ID, question.Text, question.CreatedBy, question.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	return nil
}

// Question returns a question by id, or nil when absent.
func (s *Store) Question(ctx context.Context, id string) (*core.Question, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, text, created_by, created_at
		FROM questions
		WHERE id = ?
	`, id)

	var (
		question  core.Question
		createdBy sql.NullString
		createdAt int64
	)
	if err := row.Scan(&question.ID, &question.Text, &createdBy, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch question: %w", err)
	}

	question.CreatedBy = createdBy.String
	question.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &question, nil
}

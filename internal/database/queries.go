package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zombar/wordwise/internal/models"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// CreateUser inserts a user and fills in its ID and CreatedAt
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = now()
	err := db.queryRow(ctx, `
		INSERT INTO users (email, hashed_password, is_active, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, user.Email, user.HashedPassword, user.IsActive, user.CreatedAt).Scan(&user.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.scanUser(db.queryRow(ctx, `
		SELECT id, email, hashed_password, is_active, created_at
		FROM users
		WHERE email = ?
	`, email))
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return db.scanUser(db.queryRow(ctx, `
		SELECT id, email, hashed_password, is_active, created_at
		FROM users
		WHERE id = ?
	`, id))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// AddWord adds word to a user's dictionary. It reports false when the word
// was already present.
func (db *DB) AddWord(ctx context.Context, userID int64, word string) (bool, error) {
	exists, err := db.WordExists(ctx, userID, word)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	_, err = db.exec(ctx, `
		INSERT INTO user_words (user_id, word, created_at)
		VALUES (?, ?, ?)
	`, userID, word, now())
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert word: %w", err)
	}
	return true, nil
}

// WordExists reports whether word is in a user's dictionary
func (db *DB) WordExists(ctx context.Context, userID int64, word string) (bool, error) {
	var n int
	err := db.queryRow(ctx, `
		SELECT COUNT(*) FROM user_words WHERE user_id = ? AND word = ?
	`, userID, word).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check word: %w", err)
	}
	return n > 0, nil
}

// ListWords returns a user's dictionary in insertion order
func (db *DB) ListWords(ctx context.Context, userID int64) ([]string, error) {
	rows, err := db.query(ctx, `
		SELECT word FROM user_words WHERE user_id = ? ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	words := []string{}
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return words, nil
}

// CreateInspiration saves a liked post and fills in its ID and CreatedAt
func (db *DB) CreateInspiration(ctx context.Context, insp *models.Inspiration) error {
	insp.Tags = NormalizeTags(insp.Tags)
	tagsJSON, err := json.Marshal(insp.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	insp.CreatedAt = now()
	err = db.queryRow(ctx, `
		INSERT INTO inspirations (user_id, content, platform, tags, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, insp.UserID, insp.Content, insp.Platform, string(tagsJSON), insp.CreatedAt).Scan(&insp.ID)
	if err != nil {
		return fmt.Errorf("failed to insert inspiration: %w", err)
	}
	return nil
}

const inspirationColumns = `id, user_id, content, platform, tags, created_at`

// ListInspirations returns a user's inspirations, newest first
func (db *DB) ListInspirations(ctx context.Context, userID int64) ([]*models.Inspiration, error) {
	rows, err := db.query(ctx, `
		SELECT `+inspirationColumns+`
		FROM inspirations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspirations: %w", err)
	}
	return scanInspirations(rows)
}

// GetInspirationsByIDs returns the caller's inspirations among ids, in the
// order given. Unknown or foreign IDs are skipped.
func (db *DB) GetInspirationsByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Inspiration, error) {
	if len(ids) == 0 {
		return []*models.Inspiration{}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := db.query(ctx, `
		SELECT `+inspirationColumns+`
		FROM inspirations
		WHERE user_id = ? AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspirations: %w", err)
	}
	found, err := scanInspirations(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Inspiration, len(found))
	for _, insp := range found {
		byID[insp.ID] = insp
	}
	ordered := make([]*models.Inspiration, 0, len(found))
	for _, id := range ids {
		if insp, ok := byID[id]; ok {
			ordered = append(ordered, insp)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// GetInspiration retrieves one of a user's inspirations
func (db *DB) GetInspiration(ctx context.Context, userID, id int64) (*models.Inspiration, error) {
	rows, err := db.query(ctx, `
		SELECT `+inspirationColumns+`
		FROM inspirations
		WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get inspiration: %w", err)
	}
	found, err := scanInspirations(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

// DeleteInspiration deletes one of a user's inspirations
func (db *DB) DeleteInspiration(ctx context.Context, userID, id int64) error {
	result, err := db.exec(ctx, "DELETE FROM inspirations WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete inspiration: %w", err)
	}
	return expectOneRow(result)
}

// UpdateInspirationTags replaces the tags of one of a user's inspirations
func (db *DB) UpdateInspirationTags(ctx context.Context, userID, id int64, tags []string) (*models.Inspiration, error) {
	tagsJSON, err := json.Marshal(NormalizeTags(tags))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	result, err := db.exec(ctx, `
		UPDATE inspirations SET tags = ? WHERE user_id = ? AND id = ?
	`, string(tagsJSON), userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update tags: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}
	return db.GetInspiration(ctx, userID, id)
}

func scanInspirations(rows *sql.Rows) ([]*models.Inspiration, error) {
	defer rows.Close()

	out := []*models.Inspiration{}
	for rows.Next() {
		var (
			insp     models.Inspiration
			tagsJSON string
		)
		if err := rows.Scan(&insp.ID, &insp.UserID, &insp.Content, &insp.Platform, &tagsJSON, &insp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &insp.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
		if insp.Tags == nil {
			insp.Tags = []string{}
		}
		out = append(out, &insp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// NormalizeTags trims and lowercases tags, dropping blanks and duplicates
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#")))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// CreateJob records a queued assist job
func (db *DB) CreateJob(ctx context.Context, job *models.AssistJob) error {
	job.CreatedAt = now()
	job.UpdatedAt = job.CreatedAt
	if job.Status == "" {
		job.Status = models.JobQueued
	}
	_, err := db.exec(ctx, `
		INSERT INTO assist_jobs (id, user_id, kind, status, result, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.UserID, job.Kind, job.Status, job.Result, job.Error, job.CreatedAt, job.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// UpdateJob sets the status, result and error of a job
func (db *DB) UpdateJob(ctx context.Context, id, status, result, errMsg string) error {
	res, err := db.exec(ctx, `
		UPDATE assist_jobs SET status = ?, result = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, status, result, errMsg, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return expectOneRow(res)
}

// GetJob retrieves one of a user's jobs
func (db *DB) GetJob(ctx context.Context, userID int64, id string) (*models.AssistJob, error) {
	var job models.AssistJob
	err := db.queryRow(ctx, `
		SELECT id, user_id, kind, status, result, error, created_at, updated_at
		FROM assist_jobs
		WHERE user_id = ? AND id = ?
	`, userID, id).Scan(&job.ID, &job.UserID, &job.Kind, &job.Status, &job.Result, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

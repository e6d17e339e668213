package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewStore struct {
	pool *pgxpool.Pool
}

func NewReviewStore(pool *pgxpool.Pool) *ReviewStore {
	return &ReviewStore{pool: pool}
}

const reviewColumns = `id, user_id, design_id, rating, comment, created_at, updated_at`

func (s *ReviewStore) Create(ctx context.Context, review *Review) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reviews (user_id, design_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, review.UserID, review.DesignID, review.Rating, review.Comment)
	return row.Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (s *ReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	review, err := scanReview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	return review, err
}

func (s *ReviewStore) ListByDesign(ctx context.Context, designID uuid.UUID) ([]*Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE design_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, designID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (s *ReviewStore) Update(ctx context.Context, review *Review) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`, review.Rating, review.Comment, review.ID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *ReviewStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE reviews
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func scanReview(row pgx.Row) (*Review, error) {
	var review Review
	err := row.Scan(&review.ID, &review.UserID, &review.DesignID, &review.Rating,
		&review.Comment, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDesignNotFound = errors.New("card design not found")

type DesignStore struct {
	pool *pgxpool.Pool
}

func NewDesignStore(pool *pgxpool.Pool) *DesignStore {
	return &DesignStore{pool: pool}
}

const designColumns = `id, name, description, front_image_url, back_image_url,
	materials, active, created_at, updated_at`

func (s *DesignStore) Create(ctx context.Context, design *CardDesign) error {
	materialsJSON, err := json.Marshal(design.Materials)
	if err != nil {
		return fmt.Errorf("failed to encode materials: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO card_designs (name, description, front_image_url, back_image_url, materials, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, design.Name, design.Description, textOrNull(design.FrontImageURL),
		textOrNull(design.BackImageURL), materialsJSON, design.Active)
	return row.Scan(&design.ID, &design.CreatedAt, &design.UpdatedAt)
}

func (s *DesignStore) GetByID(ctx context.Context, id uuid.UUID) (*CardDesign, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+designColumns+`
		FROM card_designs
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	design, err := scanDesign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDesignNotFound
	}
	return design, err
}

func (s *DesignStore) List(ctx context.Context, limit int) ([]*CardDesign, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+designColumns+`
		FROM card_designs
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var designs []*CardDesign
	for rows.Next() {
		design, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, design)
	}
	return designs, rows.Err()
}

func (s *DesignStore) Update(ctx context.Context, design *CardDesign) error {
	materialsJSON, err := json.Marshal(design.Materials)
	if err != nil {
		return fmt.Errorf("failed to encode materials: %w", err)
	}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE card_designs
		SET name = $1, description = $2, front_image_url = $3, back_image_url = $4,
			materials = $5, active = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
	`, design.Name, design.Description, textOrNull(design.FrontImageURL),
		textOrNull(design.BackImageURL), materialsJSON, design.Active, design.ID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDesignNotFound
	}
	return nil
}

func (s *DesignStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE card_designs
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDesignNotFound
	}
	return nil
}

func scanDesign(row pgx.Row) (*CardDesign, error) {
	var (
		design        CardDesign
		frontImage    pgtype.Text
		backImage     pgtype.Text
		materialsJSON []byte
	)
	err := row.Scan(&design.ID, &design.Name, &design.Description, &frontImage,
		&backImage, &materialsJSON, &design.Active, &design.CreatedAt, &design.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if frontImage.Valid {
		design.FrontImageURL = frontImage.String
	}
	if backImage.Valid {
		design.BackImageURL = backImage.String
	}
	if materialsJSON != nil {
		if err := json.Unmarshal(materialsJSON, &design.Materials); err != nil {
			return nil, fmt.Errorf("failed to decode materials: %w", err)
		}
	}
	return &design, nil
}

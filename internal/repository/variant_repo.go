package repository

import (
	"context"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

const variantSelectColumns = `id, name, lesson_count, duration_minutes,
		monthly_price, price_version, is_active`

type VariantRepository struct {
	db DBTX
}

func NewVariantRepository(db DBTX) *VariantRepository {
	return &VariantRepository{db: db}
}

func (r *VariantRepository) GetByID(ctx context.Context, id int64) (*models.ContractVariant, error) {
	query := `
		SELECT ` + variantSelectColumns + `
		FROM contract_variants
		WHERE id = $1
	`
	var variant models.ContractVariant
	err := r.db.QueryRow(ctx, query, id).Scan(
		&variant.ID,
		&variant.Name,
		&variant.LessonCount,
		&variant.DurationMinutes,
		&variant.MonthlyPrice,
		&variant.PriceVersion,
		&variant.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *VariantRepository) ListActiveByPriceVersion(ctx context.Context, priceVersion int) ([]models.ContractVariant, error) {
	query := `
		SELECT ` + variantSelectColumns + `
		FROM contract_variants
		WHERE is_active AND price_version = $1
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, priceVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []models.ContractVariant
	for rows.Next() {
		var variant models.ContractVariant
		err := rows.Scan(
			&variant.ID,
			&variant.Name,
			&variant.LessonCount,
			&variant.DurationMinutes,
			&variant.MonthlyPrice,
			&variant.PriceVersion,
			&variant.IsActive,
		)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, rows.Err()
}

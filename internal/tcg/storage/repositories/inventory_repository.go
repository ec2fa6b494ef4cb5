package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"tcgsearch_api/internal/tcg/models"
)

type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindByName returns every row whose name contains text, case-insensitively.
func (r *InventoryRepository) FindByName(ctx context.Context, text string) ([]models.InventoryRow, error) {
	query := `
		SELECT
			id, name, product_id, language, is_foil, price_minor, stock_count, image_url, set_name
		FROM inventory.items
		WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query, likeEscaper.Replace(strings.TrimSpace(text)))
	if err != nil {
		return nil, fmt.Errorf("query inventory by name: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryRow
	for rows.Next() {
		var (
			row       models.InventoryRow
			productID sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Name, &productID, &row.Language, &row.IsFoil,
			&row.PriceMinor, &row.StockCount, &row.ImageURL, &row.SetName); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		if productID.Valid {
			id := productID.String
			row.ProductID = &id
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}
	return items, nil
}

// BatchUpdatePrices rewrites prices in one transaction: all updates land or none do.
// Ids that no longer exist are ignored.
func (r *InventoryRepository) BatchUpdatePrices(ctx context.Context, updates []models.PriceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(updates))
	prices := make([]int64, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
		prices[i] = u.PriceMinor
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin price update: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE inventory.items AS i
		SET price_minor = u.price_minor, updated_at = now()
		FROM unnest($1::bigint[], $2::bigint[]) AS u(id, price_minor)
		WHERE i.id = u.id
	`
	res, err := tx.ExecContext(ctx, query, pq.Array(ids), pq.Array(prices))
	if err != nil {
		return 0, fmt.Errorf("update prices: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit price update: %w", err)
	}
	return int(affected), nil
}

package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// AddQuantity inserts a line for the scope and product, or adds quantity to
// the existing one, in a single statement. The stored line is returned.
func (r *Repository) AddQuantity(ctx context.Context, scope Scope, productID uuid.UUID, quantity int) (*models.CartLine, error) {
	now := time.Now().UTC()
	line := &models.CartLine{
		SessionID: scope.SessionID,
		AccountID: scope.AccountID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).
		Omit("Product").
		Clauses(upsertClause(scope)).
		Create(line).Error
	if err != nil {
		return nil, err
	}
	return r.FindByProduct(ctx, scope, productID)
}

// upsertClause targets the partial unique index that matches the scope.
func upsertClause(scope Scope) clause.OnConflict {
	columns := []clause.Column{{Name: "session_id"}, {Name: "product_id"}}
	target := "account_id IS NULL"
	if scope.AccountID != nil {
		columns = append(columns, clause.Column{Name: "account_id"})
		target = "account_id IS NOT NULL"
	}
	return clause.OnConflict{
		Columns:     columns,
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: target}}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}
}

// FindByProduct loads the scope's line for productID with its product.
func (r *Repository) FindByProduct(ctx context.Context, scope Scope, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := scope.Apply(r.db.WithContext(ctx)).
		Preload("Product").
		Where("cart_lines.product_id = ?", productID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindInScope loads a line by id, only when it belongs to the scope.
func (r *Repository) FindInScope(ctx context.Context, scope Scope, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := scope.Apply(r.db.WithContext(ctx)).
		Preload("Product").
		Where("cart_lines.id = ?", lineID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListByScope returns the scope's lines, oldest first, with each product and
// its categories loaded in batched queries.
func (r *Repository) ListByScope(ctx context.Context, scope Scope) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := scope.Apply(r.db.WithContext(ctx)).
		Preload("Product").
		Preload("Product.Categories").
		Order("cart_lines.created_at ASC").
		Order("cart_lines.id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// LockByScope reads the scope's lines with row locks where the dialect
// supports them. Products are not loaded.
func (r *Repository) LockByScope(ctx context.Context, scope Scope) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := scope.Apply(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("cart_lines.created_at ASC").
		Order("cart_lines.id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// SetQuantity replaces the quantity of a line in the scope.
func (r *Repository) SetQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx).Model(&models.CartLine{})).
		Where("cart_lines.id = ?", lineID).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// Delete removes one line of the scope.
func (r *Repository) Delete(ctx context.Context, scope Scope, lineID uuid.UUID) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx)).
		Where("cart_lines.id = ?", lineID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteIDs removes the given lines of the scope and reports how many still
// existed.
func (r *Repository) DeleteIDs(ctx context.Context, scope Scope, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := scope.Apply(r.db.WithContext(ctx)).
		Where("cart_lines.id IN ?", ids).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteByScope empties the scope's cart.
func (r *Repository) DeleteByScope(ctx context.Context, scope Scope) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx)).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

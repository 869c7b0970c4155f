package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestCartMigrationDeclaresPartialUniqueIndexes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_lines_table.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_lines",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_lines_guest ON cart_lines (session_id, product_id) WHERE account_id IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_lines_account ON cart_lines (session_id, product_id, account_id) WHERE account_id IS NOT NULL",
		"ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsApplyOnSQLite(t *testing.T) {
	conn := dbtest.Open(t)

	for _, table := range []string{"categories", "products", "product_categories", "cart_lines", "orders", "order_items"} {
		require.True(t, conn.Migrator().HasTable(table), "table %s", table)
	}

	productID := uuid.New()
	require.NoError(t, conn.Exec(
		`INSERT INTO products (id, slug, name, price, stock_quantity) VALUES (?, ?, ?, ?, ?)`,
		productID, "oat-crunch", "Oat Crunch", "4.50", 3,
	).Error)

	sessionID := "sess-1"
	require.NoError(t, conn.Exec(
		`INSERT INTO cart_lines (id, session_id, product_id, quantity) VALUES (?, ?, ?, ?)`,
		uuid.New(), sessionID, productID, 1,
	).Error)
	// a second guest line for the same session and product violates the partial index
	require.Error(t, conn.Exec(
		`INSERT INTO cart_lines (id, session_id, product_id, quantity) VALUES (?, ?, ?, ?)`,
		uuid.New(), sessionID, productID, 1,
	).Error)
	// an account-owned line in the same session is a different scope
	require.NoError(t, conn.Exec(
		`INSERT INTO cart_lines (id, session_id, account_id, product_id, quantity) VALUES (?, ?, ?, ?, ?)`,
		uuid.New(), sessionID, uuid.New(), productID, 1,
	).Error)
	// quantity must be positive
	require.Error(t, conn.Exec(
		`INSERT INTO cart_lines (id, session_id, product_id, quantity) VALUES (?, ?, ?, ?)`,
		uuid.New(), "sess-2", productID, 0,
	).Error)

	// deleting the product cascades to its cart lines
	require.NoError(t, conn.Exec(`DELETE FROM products WHERE id = ?`, productID).Error)
	var remaining int64
	require.NoError(t, conn.Table("cart_lines").Count(&remaining).Error)
	require.Zero(t, remaining)
}

func TestOrdersTotalConstraint(t *testing.T) {
	conn := dbtest.Open(t)

	insert := `INSERT INTO orders (id, order_number, session_id, customer_name, customer_email, customer_phone,
shipping_address, subtotal, delivery_fee, total_amount, delivery_distance) VALUES (?, ?, 's', 'n', 'e@x.io', '1', 'addr', ?, ?, ?, 2.0)`

	require.NoError(t, conn.Exec(insert, uuid.New(), "ORD-AAAAAAAA", "20.00", "3.99", "23.99").Error)
	require.Error(t, conn.Exec(insert, uuid.New(), "ORD-BBBBBBBB", "20.00", "3.99", "24.00").Error)
	// order numbers are unique
	require.Error(t, conn.Exec(insert, uuid.New(), "ORD-AAAAAAAA", "1.00", "3.99", "4.99").Error)
}

func TestGooseDialect(t *testing.T) {
	d, err := migrate.GooseDialect("sqlite")
	require.NoError(t, err)
	require.EqualValues(t, "sqlite3", d)

	d, err = migrate.GooseDialect("")
	require.NoError(t, err)
	require.EqualValues(t, "postgres", d)

	_, err = migrate.GooseDialect("oracle")
	require.Error(t, err)
}

package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE RESTRICT",
		"CHECK (total_amount > 0)",
		"CHECK (payment_status IN ('pending', 'completed', 'failed', 'refunded'))",
		"CHECK (payment_method IN ('upi', 'card'))",
		"idx_orders_razorpay_order_id",
		"idx_orders_stripe_session_id",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrderItemsMigrationKeepsSnapshotIndependent(t *testing.T) {
	content := readMigration(t, "*_create_order_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"product_name TEXT NOT NULL",
		"price NUMERIC(12,2) NOT NULL",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	// Order lines are frozen snapshots: deleting a product must not cascade
	// into historical orders, so there is no FK back to products.
	if strings.Contains(content, "REFERENCES products") {
		t.Error("order_items must not reference products")
	}
}

func TestCartItemsMigrationEnforcesOneLinePerProduct(t *testing.T) {
	content := readMigration(t, "*_create_cart_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_user_product ON cart_items(user_id, product_id)",
		"CHECK (quantity > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}

	// Cart lines never store a price; amounts are resolved at checkout.
	if strings.Contains(content, "price") {
		t.Error("cart_items must not carry a price column")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

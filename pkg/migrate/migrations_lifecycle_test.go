package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sidaputra/dapurlink-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestFulfillmentMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_fulfillment_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS vendor_fulfillments",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_fulfillment_order_vendor ON vendor_fulfillments (order_id, vendor_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_shipment_order_vendor ON shipments (order_id, vendor_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_confirmation_order ON delivery_confirmations (order_id)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS delivery_confirmations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationContainsDedupeIndex(t *testing.T) {
	content := readMigration(t, "*_create_outbox_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"ux_outbox_events_event_aggregate",
		"WHERE published_at IS NULL",
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q found", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

package catalog

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

const testFixture = `
brands:
  - {id: 1, name: Samsung}
  - {id: 2, name: Apple}
  - {id: 3, name: Xiaomi}
products:
  - id: 10
    name: Galaxy S24 Ultra
    brand_id: 1
    status: available
    rating: 4.8
    description: "Camera sau 200MP, pin 5000 mAh"
    prices:
      - {id: 100, amount: 28990000, active: true, start_date: 2026-01-10T00:00:00Z}
      - {id: 101, amount: 31990000, active: false, start_date: 2025-10-01T00:00:00Z}
    spec:
      chipset: Snapdragon 8 Gen 3
      ram: 12 GB
      battery: 5000 mAh
  - id: 11
    name: Galaxy A15
    brand_id: 1
    status: available
    rating: 4.1
    prices:
      - {id: 110, amount: 4490000, active: true, start_date: 2026-03-01T00:00:00Z}
  - id: 12
    name: Galaxy A05
    brand_id: 1
    status: discontinued
  - id: 20
    name: iPhone 15
    brand_id: 2
    status: available
    rating: 4.7
    prices:
      - {id: 200, amount: 19990000, active: true, start_date: 2025-12-01T00:00:00Z}
  - id: 30
    name: Unbranded phone
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(DriverSQLite, ":memory:", 0)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	if err := Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	f, err := LoadFixture(strings.NewReader(testFixture))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if err := Seed(ctx, conn, f); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return conn
}

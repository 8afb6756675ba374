// Package dbtest opens isolated in-memory sqlite databases for repository tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh in-memory database named after the test and applies the given DDL.
func Open(t *testing.T, ddl ...string) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range ddl {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply ddl: %v\n%s", err, stmt)
		}
	}
	return conn
}

// Schema mirrors the tables created by the goose migrations using sqlite types.
var Schema = []string{
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  description TEXT,
  price_individual TEXT NOT NULL,
  group_min_participants INTEGER,
  group_price TEXT,
  max_capacity INTEGER NOT NULL,
  tags TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE product_add_ons (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_fee TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
	`CREATE TABLE activity_sessions (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  guide_id TEXT,
  starts_at DATETIME NOT NULL,
  capacity INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'scheduled',
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE bookings (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  session_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  number_of_people INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'confirmed',
  unit_price TEXT NOT NULL,
  base_amount TEXT NOT NULL,
  discount_type TEXT NOT NULL DEFAULT 'none',
  discount_kind TEXT,
  discount_value TEXT,
  discount_amount TEXT NOT NULL,
  voucher_code TEXT,
  add_ons_amount TEXT NOT NULL,
  total_price TEXT NOT NULL,
  manual_price INTEGER NOT NULL DEFAULT 0,
  deposit_amount TEXT NOT NULL,
  amount_paid TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  reseller_id TEXT,
  commission_amount TEXT NOT NULL,
  notes TEXT,
  created_by TEXT,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE booking_add_ons (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  add_on_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_fee TEXT NOT NULL,
  quantity INTEGER NOT NULL
);`,
	`CREATE TABLE booking_payments (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  method TEXT NOT NULL,
  amount TEXT NOT NULL,
  reference TEXT,
  recorded_by TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE promo_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  guide_id TEXT,
  kind TEXT NOT NULL,
  amount TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  valid_from DATETIME,
  valid_until DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE gift_vouchers (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  kind TEXT NOT NULL,
  amount TEXT NOT NULL,
  max_uses INTEGER NOT NULL DEFAULT 1,
  used_count INTEGER NOT NULL DEFAULT 0,
  expires_at DATETIME,
  active INTEGER NOT NULL DEFAULT 1,
  purchaser_name TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE guides (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  deposit_kind TEXT NOT NULL DEFAULT 'none',
  deposit_amount TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE resellers (
  id TEXT PRIMARY KEY,
  user_id TEXT UNIQUE,
  name TEXT NOT NULL,
  email TEXT,
  commission_percentage TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  event_id TEXT,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME
);`,
}

package db

import (
	"context"
	"fmt"

	"musafir/internal/utils"
)

type tableDDL struct {
	name string
	ddl  string
}

var schema = []tableDDL{
	{"trips", `
CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	base_price BIGINT NOT NULL DEFAULT 0,
	early_bird_price BIGINT NOT NULL DEFAULT 0,
	early_bird_deadline DATETIME NULL,
	seat_capacity INT NOT NULL DEFAULT 0,
	content_version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"trip_addons", `
CREATE TABLE IF NOT EXISTS trip_addons (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	category VARCHAR(20) NOT NULL,
	option_key VARCHAR(100) NOT NULL,
	price BIGINT NOT NULL DEFAULT 0,
	UNIQUE KEY uniq_trip_addon (trip_id, category, option_key),
	KEY idx_trip (trip_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"trip_discounts", `
CREATE TABLE IF NOT EXISTS trip_discounts (
	trip_id BIGINT NOT NULL,
	kind VARCHAR(20) NOT NULL,
	enabled TINYINT(1) NOT NULL DEFAULT 0,
	amount_per_unit BIGINT NOT NULL DEFAULT 0,
	total_count BIGINT NOT NULL DEFAULT 0,
	used_count BIGINT NOT NULL DEFAULT 0,
	used_value BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (trip_id, kind),
	CHECK (used_count <= total_count),
	CHECK (used_value <= amount_per_unit * total_count)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"registrations", `
CREATE TABLE IF NOT EXISTS registrations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	email VARCHAR(255) NOT NULL,
	trip_type VARCHAR(20) NOT NULL,
	gender VARCHAR(20) NOT NULL DEFAULT '',
	tenure_months INT NOT NULL DEFAULT 0,
	city VARCHAR(100) NOT NULL DEFAULT '',
	tier VARCHAR(100) NOT NULL DEFAULT '',
	room_sharing VARCHAR(100) NOT NULL DEFAULT '',
	sleep_preference VARCHAR(100) NOT NULL DEFAULT '',
	price BIGINT NOT NULL DEFAULT 0,
	discount_type VARCHAR(20) NULL,
	discount_applied BIGINT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL,
	cancelled_at DATETIME NULL,
	refund_status VARCHAR(20) NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_trip_user (trip_id, user_id),
	KEY idx_trip_email (trip_id, email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"group_links", `
CREATE TABLE IF NOT EXISTS group_links (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	registration_id BIGINT NOT NULL,
	email VARCHAR(255) NOT NULL,
	active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_registration_email (registration_id, email),
	KEY idx_trip_email (trip_id, email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"discount_reservations", `
CREATE TABLE IF NOT EXISTS discount_reservations (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	registration_id BIGINT NOT NULL,
	kind VARCHAR(20) NOT NULL,
	unit_count BIGINT NOT NULL,
	amount BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	released_at DATETIME NULL,
	UNIQUE KEY uniq_registration_kind (registration_id, kind)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"payments", `
CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	registration_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	amount BIGINT NOT NULL DEFAULT 0,
	wallet_amount BIGINT NOT NULL DEFAULT 0,
	discount BIGINT NOT NULL DEFAULT 0,
	discount_type VARCHAR(20) NULL,
	status VARCHAR(20) NOT NULL,
	proof_ref VARCHAR(500) NULL,
	idempotency_key VARCHAR(191) NULL,
	wallet_txn_id BIGINT NULL,
	reservation_id BIGINT NULL,
	reviewed_by BIGINT NULL,
	reviewed_at DATETIME NULL,
	reject_reason VARCHAR(500) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_idempotency (idempotency_key),
	KEY idx_registration (registration_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"wallet_accounts", `
CREATE TABLE IF NOT EXISTS wallet_accounts (
	user_id BIGINT PRIMARY KEY,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"wallet_transactions", `
CREATE TABLE IF NOT EXISTS wallet_transactions (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	direction VARCHAR(10) NOT NULL,
	amount BIGINT NOT NULL,
	type VARCHAR(50) NOT NULL,
	status VARCHAR(10) NOT NULL,
	reference VARCHAR(191) NULL,
	expires_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_reference (reference),
	KEY idx_user (user_id, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"topup_requests", `
CREATE TABLE IF NOT EXISTS topup_requests (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	package_amount BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL,
	processed_at DATETIME NULL,
	processed_by BIGINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"refunds", `
CREATE TABLE IF NOT EXISTS refunds (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	registration_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL,
	refund_amount BIGINT NOT NULL,
	settlement_status VARCHAR(20) NOT NULL DEFAULT 'none',
	settlement_txn_id BIGINT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	reviewed_by BIGINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_registration (registration_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// EnsureSchema creates every missing table. Existing tables are left alone.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, t := range schema {
		if HasTable(ctx, q, t.name) {
			continue
		}
		if _, err := q.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
		utils.LogEvent("", "schema", "create_table", t.name)
	}
	return nil
}

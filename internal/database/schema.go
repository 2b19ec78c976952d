package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates every table the service needs.  Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) so running them at every startup
// is safe.  The UNIQUE key on booked_seats(trip_id, seat_number) is the
// invariant the settlement engine relies on: two concurrent purchases of
// the same seat cannot both commit.  Deleting a trip cascades to its
// tickets and seat claims, and deleting a coupon cascades to its
// redemption rows; removing a company detaches its users and coupons
// instead of blocking.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(191) NOT NULL,
		logo_path  VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_companies_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		full_name     VARCHAR(191) NOT NULL,
		email         VARCHAR(191) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(32) NOT NULL DEFAULT 'USER',
		company_id    BIGINT UNSIGNED NULL,
		balance       DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		CONSTRAINT fk_users_company FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS trips (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		company_id     BIGINT UNSIGNED NOT NULL,
		from_city      VARCHAR(191) NOT NULL,
		to_city        VARCHAR(191) NOT NULL,
		departure_time DATETIME NOT NULL,
		arrival_time   DATETIME NOT NULL,
		price          DECIMAL(10,2) NOT NULL,
		capacity       INT UNSIGNED NOT NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_trips_route_time (from_city, to_city, departure_time),
		CONSTRAINT fk_trips_company FOREIGN KEY (company_id) REFERENCES companies(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		trip_id     BIGINT UNSIGNED NOT NULL,
		user_id     BIGINT UNSIGNED NOT NULL,
		seat_number INT UNSIGNED NOT NULL,
		status      ENUM('active','cancelled','used') NOT NULL DEFAULT 'active',
		total_price DECIMAL(10,2) NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_user (user_id),
		CONSTRAINT fk_tickets_trip FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE,
		CONSTRAINT fk_tickets_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS booked_seats (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		trip_id     BIGINT UNSIGNED NOT NULL,
		ticket_id   BIGINT UNSIGNED NOT NULL,
		seat_number INT UNSIGNED NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_booked_seats_trip_seat (trip_id, seat_number),
		CONSTRAINT fk_booked_seats_trip FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE,
		CONSTRAINT fk_booked_seats_ticket FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS coupons (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code        VARCHAR(64) NOT NULL,
		discount    DECIMAL(5,2) NOT NULL,
		company_id  BIGINT UNSIGNED NULL,
		usage_limit INT UNSIGNED NULL,
		expire_date DATETIME NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_coupons_code (code),
		CONSTRAINT fk_coupons_company FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS coupon_redemptions (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		coupon_id   BIGINT UNSIGNED NOT NULL,
		user_id     BIGINT UNSIGNED NOT NULL,
		redeemed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_redemptions_coupon_user (coupon_id, user_id),
		CONSTRAINT fk_redemptions_coupon FOREIGN KEY (coupon_id) REFERENCES coupons(id) ON DELETE CASCADE,
		CONSTRAINT fk_redemptions_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// InitSchema applies the schema statements in order.  Parent tables come
// before children so foreign keys resolve on a fresh database.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

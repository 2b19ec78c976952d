package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func statementFor(t *testing.T, table string) string {
	t.Helper()
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			return stmt
		}
	}
	t.Fatalf("no schema statement for table %q", table)
	return ""
}

// Trip deletion removes sold tickets and their seat claims, and coupon
// deletion removes redemption rows.  Without ON DELETE CASCADE those
// foreign keys default to RESTRICT and any trip with a sold ticket (or
// coupon ever redeemed) becomes undeletable.
func TestSchemaCascadesChildRows(t *testing.T) {
	cascading := map[string]string{
		"tickets":            "fk_tickets_trip",
		"booked_seats":       "fk_booked_seats_trip",
		"coupon_redemptions": "fk_redemptions_coupon",
	}
	for table, fk := range cascading {
		stmt := statementFor(t, table)
		i := strings.Index(stmt, "CONSTRAINT "+fk)
		require.GreaterOrEqual(t, i, 0, "constraint %s missing from %s", fk, table)
		clause := stmt[i:]
		if j := strings.Index(clause, ","); j >= 0 {
			clause = clause[:j]
		}
		require.Contains(t, clause, "ON DELETE CASCADE", "constraint %s must cascade", fk)
	}

	// A seat claim must not outlive its ticket either.
	seats := statementFor(t, "booked_seats")
	require.Contains(t, seats, "fk_booked_seats_ticket FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE")
}

// Company deletion detaches dependents rather than blocking: users and
// coupons carry a nullable company_id that is cleared.
func TestSchemaDetachesCompanyDependents(t *testing.T) {
	require.Contains(t, statementFor(t, "users"),
		"fk_users_company FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL")
	require.Contains(t, statementFor(t, "coupons"),
		"fk_coupons_company FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE SET NULL")
}

// The settlement engine's seat-race guarantee rests on this key.
func TestSchemaKeepsSeatUniqueness(t *testing.T) {
	require.Contains(t, statementFor(t, "booked_seats"),
		"UNIQUE KEY uq_booked_seats_trip_seat (trip_id, seat_number)")
}

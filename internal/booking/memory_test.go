package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticketing/internal/model"
)

func TestMemoryStoreAtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetBalance(1, dec("100.00"))

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(tx Tx) error {
		require.NoError(t, tx.Debit(ctx, 1, dec("40.00")))
		require.NoError(t, tx.CreateTicket(ctx, &model.Ticket{
			TripID: 1, UserID: 1, SeatNumber: 3, Status: model.TicketActive,
			TotalPrice: dec("40.00"), CreatedAt: time.Now().UTC(),
		}))
		require.NoError(t, tx.ClaimSeat(ctx, 1, 1, 3))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the failed unit is visible.
	bal, err := store.Balance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("100.00")), "balance %s", bal)

	seats, err := store.ClaimedSeats(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, seats)

	_, ok := store.Ticket(1)
	assert.False(t, ok)
}

func TestMemoryStoreAtomicCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetBalance(1, dec("100.00"))

	var ticketID uint64
	err := store.Atomic(ctx, func(tx Tx) error {
		if err := tx.Debit(ctx, 1, dec("40.00")); err != nil {
			return err
		}
		tk := &model.Ticket{
			TripID: 1, UserID: 1, SeatNumber: 3, Status: model.TicketActive,
			TotalPrice: dec("40.00"), CreatedAt: time.Now().UTC(),
		}
		if err := tx.CreateTicket(ctx, tk); err != nil {
			return err
		}
		ticketID = tk.ID
		return tx.ClaimSeat(ctx, 1, tk.ID, 3)
	})
	require.NoError(t, err)

	bal, err := store.Balance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("60.00")))

	seats, err := store.ClaimedSeats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, seats)

	stored, ok := store.Ticket(ticketID)
	require.True(t, ok)
	assert.Equal(t, model.TicketActive, stored.Status)
}

func TestMemoryStoreSentinels(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetTrip(ctx, 7)
	assert.ErrorIs(t, err, ErrTripNotFound)

	_, err = store.Balance(ctx, 7)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = store.Atomic(ctx, func(tx Tx) error {
		_, err := tx.CouponByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrCouponNotFound)

		err = tx.Debit(ctx, 7, dec("1.00"))
		assert.ErrorIs(t, err, ErrUserNotFound)

		err = tx.ReleaseSeat(ctx, 7)
		assert.ErrorIs(t, err, ErrClaimNotFound)

		_, _, err = tx.ActiveTicket(ctx, 7, 7)
		assert.ErrorIs(t, err, ErrTicketNotFound)
		return nil
	})
	require.NoError(t, err)
}

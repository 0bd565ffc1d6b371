package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopdesk/internal/database"
	"workshopdesk/internal/domain"
)

func newTestDB(t *testing.T) (*BookingRepository, *WorkshopRepository) {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	return NewBookingRepository(db), NewWorkshopRepository(db)
}

func createWorkshop(t *testing.T, workshops *WorkshopRepository, capacity int) *domain.Workshop {
	t.Helper()
	w := &domain.Workshop{
		Title:          "Test Workshop",
		Capacity:       capacity,
		PricePerPerson: 50,
		Currency:       "EUR",
		Active:         true,
	}
	require.NoError(t, workshops.Create(context.Background(), w))
	return w
}

func createBooking(t *testing.T, bookings *BookingRepository, workshopID int64, participants int, state domain.BookingState, token string) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		WorkshopID:   workshopID,
		Name:         "Tester",
		Email:        "tester@example.com",
		Participants: participants,
		Mode:         domain.ModeGroup,
		State:        state,
		Token:        token,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, bookings.Create(context.Background(), b))
	return b
}

func TestConfirm_Pending(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)
	b := createBooking(t, bookings, w.ID, 3, domain.BookingPending, "")

	now := time.Now().Truncate(time.Second)
	res, err := bookings.Confirm(ctx, b.ID, now)

	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmOK, res.Status)
	assert.Equal(t, domain.BookingConfirmed, res.Booking.State)
	require.NotNil(t, res.Booking.ConfirmedAt)

	stored, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, stored.State)
}

func TestConfirm_AlreadyConfirmedIsNoop(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)
	b := createBooking(t, bookings, w.ID, 3, domain.BookingPending, "")

	first, err := bookings.Confirm(ctx, b.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.ConfirmOK, first.Status)
	firstAt := first.Booking.ConfirmedAt

	second, err := bookings.Confirm(ctx, b.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmAlready, second.Status)

	stored, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConfirmedAt)
	assert.WithinDuration(t, *firstAt, *stored.ConfirmedAt, time.Second)
}

func TestConfirm_FullWorkshop(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	// Capacity 10 with 8 seats already confirmed; 3 more do not fit.
	w := createWorkshop(t, workshops, 10)
	existing := createBooking(t, bookings, w.ID, 8, domain.BookingPending, "")
	_, err := bookings.Confirm(ctx, existing.ID, time.Now())
	require.NoError(t, err)

	late := createBooking(t, bookings, w.ID, 3, domain.BookingPending, "")
	res, err := bookings.Confirm(ctx, late.ID, time.Now())

	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmFull, res.Status)

	stored, err := bookings.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, stored.State)

	// An exact fit still goes through.
	fits := createBooking(t, bookings, w.ID, 2, domain.BookingPending, "")
	res, err = bookings.Confirm(ctx, fits.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmOK, res.Status)
}

func TestConfirm_UnlimitedCapacitySkipsCheck(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 0)
	b := createBooking(t, bookings, w.ID, 500, domain.BookingPending, "")

	res, err := bookings.Confirm(ctx, b.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ConfirmOK, res.Status)
}

func TestConfirmedSeatTotal_IgnoresPending(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 20)
	confirmed := createBooking(t, bookings, w.ID, 4, domain.BookingPending, "")
	_, err := bookings.Confirm(ctx, confirmed.ID, time.Now())
	require.NoError(t, err)
	createBooking(t, bookings, w.ID, 7, domain.BookingPending, "")

	total, err := bookings.ConfirmedSeatTotal(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	total, err = bookings.ConfirmedSeatTotal(ctx, w.ID, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestSaveEdit_ConfirmingEditRespectsCapacity(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)
	existing := createBooking(t, bookings, w.ID, 8, domain.BookingPending, "")
	_, err := bookings.Confirm(ctx, existing.ID, time.Now())
	require.NoError(t, err)

	b := createBooking(t, bookings, w.ID, 3, domain.BookingPending, "")
	err = bookings.SaveEdit(ctx, b, true, time.Now())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	stored, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, stored.State)

	b.Participants = 2
	err = bookings.SaveEdit(ctx, b, true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.State)
}

func TestSaveEdit_ConfirmedBookingCannotGrowPastCapacity(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)
	b := createBooking(t, bookings, w.ID, 8, domain.BookingPending, "")
	_, err := bookings.Confirm(ctx, b.ID, time.Now())
	require.NoError(t, err)

	// A plain edit of an already-confirmed booking must respect the
	// ledger too, not only a confirming edit.
	stored, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	stored.Participants = 25
	err = bookings.SaveEdit(ctx, stored, false, time.Now())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	total, err := bookings.ConfirmedSeatTotal(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, total)

	// Growing within capacity still works.
	stored.Participants = 10
	require.NoError(t, bookings.SaveEdit(ctx, stored, false, time.Now()))

	total, err = bookings.ConfirmedSeatTotal(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestConfirm_ConcurrentAttemptsNeverExceedCapacity(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)

	ids := make([]int64, 0, 8)
	for i := 0; i < 8; i++ {
		b := createBooking(t, bookings, w.ID, 3, domain.BookingPending, "")
		ids = append(ids, b.ID)
	}

	// SQLite may reject some writers as busy; that is an acceptable
	// outcome for a racer, an over-committed workshop is not.
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			res, err := bookings.Confirm(ctx, id, time.Now())
			if err == nil && res.Status == domain.ConfirmOK {
				mu.Lock()
				confirmed += res.Booking.Participants
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	total, err := bookings.ConfirmedSeatTotal(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, total, w.Capacity)
	assert.Equal(t, confirmed, total)
}

func TestSaveEdit_ConfirmedEditExcludesItself(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)
	b := createBooking(t, bookings, w.ID, 8, domain.BookingPending, "")
	_, err := bookings.Confirm(ctx, b.ID, time.Now())
	require.NoError(t, err)

	// Growing its own seat count within capacity must not collide with
	// its previous count.
	stored, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	stored.Participants = 10
	require.NoError(t, bookings.SaveEdit(ctx, stored, true, time.Now()))

	total, err := bookings.ConfirmedSeatTotal(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestGetByToken_ExactMatchOnly(t *testing.T) {
	bookings, workshops := newTestDB(t)
	ctx := context.Background()

	w := createWorkshop(t, workshops, 10)
	tok := "0f2a9b5c1d8e7f60a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a"
	createBooking(t, bookings, w.ID, 2, domain.BookingPending, tok)

	found, err := bookings.GetByToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, tok, found.Token)

	_, err = bookings.GetByToken(ctx, tok[:63])
	assert.Error(t, err)
}

func TestCreate_DuplicateTokenRejected(t *testing.T) {
	bookings, workshops := newTestDB(t)

	w := createWorkshop(t, workshops, 10)
	tok := "0f2a9b5c1d8e7f60a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a"
	createBooking(t, bookings, w.ID, 2, domain.BookingPending, tok)

	dup := &domain.Booking{
		WorkshopID:   w.ID,
		Name:         "Other",
		Email:        "other@example.com",
		Participants: 1,
		Mode:         domain.ModeGroup,
		State:        domain.BookingPending,
		Token:        tok,
		CreatedAt:    time.Now(),
	}
	err := bookings.Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

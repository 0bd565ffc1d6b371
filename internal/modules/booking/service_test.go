package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/modules/discount"
	"workshopdesk/internal/repository"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByWorkshop(ctx context.Context, workshopID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, workshopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) HasConfirmedForEmail(ctx context.Context, workshopID int64, email string) (bool, error) {
	args := m.Called(ctx, workshopID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) ConfirmedSeatTotal(ctx context.Context, workshopID int64, excludeBookingID int64) (int, error) {
	args := m.Called(ctx, workshopID, excludeBookingID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) Confirm(ctx context.Context, bookingID int64, now time.Time) (*repository.ConfirmResult, error) {
	args := m.Called(ctx, bookingID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ConfirmResult), args.Error(1)
}

func (m *MockBookingRepository) SaveEdit(ctx context.Context, b *domain.Booking, confirm bool, now time.Time) error {
	args := m.Called(ctx, b, confirm, now)
	return args.Error(0)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockWorkshopRepository struct {
	mock.Mock
}

func (m *MockWorkshopRepository) GetByID(ctx context.Context, id int64) (*domain.Workshop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workshop), args.Error(1)
}

type MockDiscountValidator struct {
	mock.Mock
}

func (m *MockDiscountValidator) Validate(ctx context.Context, code string, workshopID int64, email string, participants int, subtotal float64) (*discount.Outcome, error) {
	args := m.Called(ctx, code, workshopID, email, participants, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discount.Outcome), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, kind domain.NotificationKind, recipient string, payload map[string]any) bool {
	args := m.Called(ctx, kind, recipient, payload)
	return args.Bool(0)
}

var bookingNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(
	bookings *MockBookingRepository,
	workshops *MockWorkshopRepository,
	discounts *MockDiscountValidator,
	notifs *MockNotifier,
) *Service {
	return NewService(bookings, workshops, discounts, notifs, 48*time.Hour, "bookings@example.org").
		WithClock(func() time.Time { return bookingNow })
}

func activeWorkshop() *domain.Workshop {
	return &domain.Workshop{
		ID:             7,
		Title:          "Intro to Wheel Throwing",
		Capacity:       10,
		PricePerPerson: 50.00,
		Currency:       "EUR",
		Active:         true,
	}
}

func TestCreate_PendingWithSnapshot(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	discounts := new(MockDiscountValidator)
	notifs := new(MockNotifier)
	svc := newTestService(bookings, workshops, discounts, notifs)

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(false, nil)
	discounts.On("Validate", mock.Anything, "SPRING25", int64(7), "anna@example.com", 4, 200.00).
		Return(&discount.Outcome{
			OK:       true,
			Code:     &domain.DiscountCode{ID: 3, Code: "SPRING25", Type: domain.DiscountPercent, Value: 25},
			Subtotal: 200.00,
			Discount: 50.00,
			Total:    150.00,
		}, nil)
	bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 42
		}).Return(nil)
	notifs.On("Notify", mock.Anything, domain.NotifConfirmationRequest, "anna@example.com", mock.Anything).Return(true)

	res, err := svc.Create(context.Background(), CreateBookingRequest{
		WorkshopID:   7,
		Name:         "Anna",
		Email:        "anna@example.com",
		Participants: 4,
		DiscountCode: "SPRING25",
	})

	assert.NoError(t, err)
	assert.False(t, res.NotifyFailed)
	b := res.Booking
	assert.Equal(t, domain.BookingPending, b.State)
	assert.Len(t, b.Token, 64)
	assert.Equal(t, 50.00, b.PricePerPerson)
	assert.Equal(t, 200.00, b.Subtotal)
	assert.Equal(t, 50.00, b.Discount)
	assert.Equal(t, 150.00, b.Total)
	assert.Equal(t, domain.DiscountPercent, b.DiscountType)
	assert.Equal(t, 25.0, b.DiscountValue)
	if assert.NotNil(t, b.DiscountCodeID) {
		assert.Equal(t, int64(3), *b.DiscountCodeID)
	}
	bookings.AssertExpectations(t)
	notifs.AssertExpectations(t)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	svc := newTestService(new(MockBookingRepository), new(MockWorkshopRepository), new(MockDiscountValidator), new(MockNotifier))

	cases := []CreateBookingRequest{
		{WorkshopID: 7, Email: "anna@example.com", Participants: 2},
		{WorkshopID: 7, Name: "Anna", Email: "not-an-email", Participants: 2},
		{WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 0},
		{WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2, Mode: "corporate"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCreate_WorkshopInactive(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	svc := newTestService(bookings, workshops, new(MockDiscountValidator), new(MockNotifier))

	w := activeWorkshop()
	w.Active = false
	workshops.On("GetByID", mock.Anything, int64(7)).Return(w, nil)

	_, err := svc.Create(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2,
	})
	assert.ErrorIs(t, err, ErrWorkshopInactive)
}

func TestCreate_DuplicateConfirmedEmailBlocks(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	svc := newTestService(bookings, workshops, new(MockDiscountValidator), new(MockNotifier))

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(true, nil)

	_, err := svc.Create(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2,
	})
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestCreate_DiscountRejectedSurfacesMessage(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	discounts := new(MockDiscountValidator)
	svc := newTestService(bookings, workshops, discounts, new(MockNotifier))

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(false, nil)
	discounts.On("Validate", mock.Anything, "GONE", int64(7), "anna@example.com", 2, 100.00).
		Return(&discount.Outcome{OK: false, Message: "this code has expired"}, nil)

	_, err := svc.Create(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2, DiscountCode: "GONE",
	})
	var rejected *DiscountRejectedError
	if assert.ErrorAs(t, err, &rejected) {
		assert.Equal(t, "this code has expired", rejected.Message)
	}
}

func TestCreate_NotifyFailureIsWarningOnly(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	discounts := new(MockDiscountValidator)
	notifs := new(MockNotifier)
	svc := newTestService(bookings, workshops, discounts, notifs)

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(false, nil)
	discounts.On("Validate", mock.Anything, "", int64(7), "anna@example.com", 2, 100.00).
		Return(&discount.Outcome{OK: true, Subtotal: 100.00, Total: 100.00}, nil)
	bookings.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifs.On("Notify", mock.Anything, domain.NotifConfirmationRequest, "anna@example.com", mock.Anything).Return(false)

	res, err := svc.Create(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2,
	})
	assert.NoError(t, err)
	assert.True(t, res.NotifyFailed)
	assert.Equal(t, domain.BookingPending, res.Booking.State)
}

func TestConfirmByToken_MalformedToken(t *testing.T) {
	svc := newTestService(new(MockBookingRepository), new(MockWorkshopRepository), new(MockDiscountValidator), new(MockNotifier))

	for _, raw := range []string{"", "short", strings.Repeat("z", 64)} {
		res, err := svc.ConfirmByToken(context.Background(), raw)
		assert.NoError(t, err)
		assert.Equal(t, domain.ConfirmInvalid, res.Status)
	}
}

func TestConfirmByToken_UnknownToken(t *testing.T) {
	bookings := new(MockBookingRepository)
	svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), new(MockNotifier))

	raw := "0f2a9b5c1d8e7f60a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a"
	bookings.On("GetByToken", mock.Anything, raw).Return(nil, gorm.ErrRecordNotFound)

	res, err := svc.ConfirmByToken(context.Background(), raw)
	assert.NoError(t, err)
	assert.Equal(t, domain.ConfirmInvalid, res.Status)
}

func TestConfirmByToken_AlreadyConfirmedIsIdempotent(t *testing.T) {
	bookings := new(MockBookingRepository)
	notifs := new(MockNotifier)
	svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), notifs)

	raw := "0f2a9b5c1d8e7f60a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a"
	confirmedAt := bookingNow.Add(-time.Hour)
	bookings.On("GetByToken", mock.Anything, raw).Return(&domain.Booking{
		ID:          42,
		State:       domain.BookingConfirmed,
		ConfirmedAt: &confirmedAt,
		CreatedAt:   bookingNow.Add(-2 * time.Hour),
	}, nil)

	res, err := svc.ConfirmByToken(context.Background(), raw)
	assert.NoError(t, err)
	assert.Equal(t, domain.ConfirmAlready, res.Status)

	// No state write and no second confirmation email.
	bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
	notifs.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmByToken_ExpiryBoundary(t *testing.T) {
	raw := "0f2a9b5c1d8e7f60a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a"

	t.Run("one second past the window expires", func(t *testing.T) {
		bookings := new(MockBookingRepository)
		svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), new(MockNotifier))

		bookings.On("GetByToken", mock.Anything, raw).Return(&domain.Booking{
			ID:        42,
			State:     domain.BookingPending,
			CreatedAt: bookingNow.Add(-48*time.Hour - time.Second),
		}, nil)

		res, err := svc.ConfirmByToken(context.Background(), raw)
		assert.NoError(t, err)
		assert.Equal(t, domain.ConfirmExpired, res.Status)
		bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("exactly at the window still confirms", func(t *testing.T) {
		bookings := new(MockBookingRepository)
		notifs := new(MockNotifier)
		svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), notifs)

		pending := &domain.Booking{
			ID:        42,
			Email:     "anna@example.com",
			State:     domain.BookingPending,
			CreatedAt: bookingNow.Add(-48 * time.Hour),
		}
		confirmed := *pending
		confirmed.State = domain.BookingConfirmed

		bookings.On("GetByToken", mock.Anything, raw).Return(pending, nil)
		bookings.On("Confirm", mock.Anything, int64(42), bookingNow).
			Return(&repository.ConfirmResult{Status: domain.ConfirmOK, Booking: &confirmed}, nil)
		notifs.On("Notify", mock.Anything, domain.NotifBookingConfirmed, "anna@example.com", mock.Anything).Return(true)
		notifs.On("Notify", mock.Anything, domain.NotifAdminNewConfirmed, "bookings@example.org", mock.Anything).Return(true)

		res, err := svc.ConfirmByToken(context.Background(), raw)
		assert.NoError(t, err)
		assert.Equal(t, domain.ConfirmOK, res.Status)
		notifs.AssertExpectations(t)
	})
}

func TestConfirmByToken_CapacityFull(t *testing.T) {
	bookings := new(MockBookingRepository)
	notifs := new(MockNotifier)
	svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), notifs)

	// Capacity 10, 8 seats confirmed, this booking wants 3 more.
	raw := "0f2a9b5c1d8e7f60a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a"
	pending := &domain.Booking{
		ID:           42,
		Participants: 3,
		State:        domain.BookingPending,
		CreatedAt:    bookingNow.Add(-time.Hour),
	}
	bookings.On("GetByToken", mock.Anything, raw).Return(pending, nil)
	bookings.On("Confirm", mock.Anything, int64(42), bookingNow).
		Return(&repository.ConfirmResult{Status: domain.ConfirmFull, Booking: pending}, nil)

	res, err := svc.ConfirmByToken(context.Background(), raw)
	assert.NoError(t, err)
	assert.Equal(t, domain.ConfirmFull, res.Status)
	notifs.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmManually_IgnoresExpiry(t *testing.T) {
	bookings := new(MockBookingRepository)
	notifs := new(MockNotifier)
	svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), notifs)

	stale := &domain.Booking{
		ID:        42,
		Email:     "anna@example.com",
		State:     domain.BookingPending,
		CreatedAt: bookingNow.Add(-30 * 24 * time.Hour),
	}
	confirmed := *stale
	confirmed.State = domain.BookingConfirmed

	bookings.On("GetByID", mock.Anything, int64(42)).Return(stale, nil)
	bookings.On("Confirm", mock.Anything, int64(42), bookingNow).
		Return(&repository.ConfirmResult{Status: domain.ConfirmOK, Booking: &confirmed}, nil)
	notifs.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)

	res, err := svc.ConfirmManually(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, domain.ConfirmOK, res.Status)
}

func TestConfirmManually_NotFound(t *testing.T) {
	bookings := new(MockBookingRepository)
	svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), new(MockNotifier))

	bookings.On("GetByID", mock.Anything, int64(99)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.ConfirmManually(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEdit_RederivesTotalsFromSnapshot(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	svc := newTestService(bookings, workshops, new(MockDiscountValidator), new(MockNotifier))

	codeID := int64(3)
	bookings.On("GetByID", mock.Anything, int64(42)).Return(&domain.Booking{
		ID:             42,
		WorkshopID:     7,
		Participants:   4,
		State:          domain.BookingPending,
		PricePerPerson: 50.00,
		Currency:       "EUR",
		Subtotal:       200.00,
		Discount:       50.00,
		Total:          150.00,
		DiscountCodeID: &codeID,
		DiscountType:   domain.DiscountPercent,
		DiscountValue:  25,
		CreatedAt:      bookingNow.Add(-time.Hour),
	}, nil)
	bookings.On("SaveEdit", mock.Anything, mock.Anything, false, bookingNow).Return(nil)

	b, err := svc.Edit(context.Background(), EditBookingRequest{
		ID:           42,
		Name:         "Anna",
		Email:        "anna@example.com",
		Participants: 6,
	})

	assert.NoError(t, err)
	assert.Equal(t, 300.00, b.Subtotal)
	assert.Equal(t, 75.00, b.Discount)
	assert.Equal(t, 225.00, b.Total)
	// Live workshop price is never consulted for a priced snapshot.
	workshops.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestEdit_ConfirmingEditBlockedByCapacity(t *testing.T) {
	bookings := new(MockBookingRepository)
	svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), new(MockNotifier))

	bookings.On("GetByID", mock.Anything, int64(42)).Return(&domain.Booking{
		ID:             42,
		WorkshopID:     7,
		Participants:   3,
		State:          domain.BookingPending,
		PricePerPerson: 50.00,
		CreatedAt:      bookingNow.Add(-time.Hour),
	}, nil)
	bookings.On("SaveEdit", mock.Anything, mock.Anything, true, bookingNow).
		Return(repository.ErrCapacityExceeded)

	_, err := svc.Edit(context.Background(), EditBookingRequest{
		ID:           42,
		Name:         "Anna",
		Email:        "anna@example.com",
		Participants: 3,
		Confirmed:    true,
	})
	assert.ErrorIs(t, err, ErrCapacityReached)
}

func TestEdit_RepairsZeroSnapshotForPending(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	svc := newTestService(bookings, workshops, new(MockDiscountValidator), new(MockNotifier))

	bookings.On("GetByID", mock.Anything, int64(42)).Return(&domain.Booking{
		ID:           42,
		WorkshopID:   7,
		Participants: 2,
		State:        domain.BookingPending,
		CreatedAt:    bookingNow.Add(-time.Hour),
	}, nil)
	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("SaveEdit", mock.Anything, mock.Anything, false, bookingNow).Return(nil)

	b, err := svc.Edit(context.Background(), EditBookingRequest{
		ID:           42,
		Name:         "Anna",
		Email:        "anna@example.com",
		Participants: 2,
	})

	assert.NoError(t, err)
	assert.Equal(t, 50.00, b.PricePerPerson)
	assert.Equal(t, "EUR", b.Currency)
	assert.Equal(t, 100.00, b.Total)
}

func TestDelete_CancellationMailOnlyWhenConfirmed(t *testing.T) {
	t.Run("confirmed booking notifies", func(t *testing.T) {
		bookings := new(MockBookingRepository)
		notifs := new(MockNotifier)
		svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), notifs)

		confirmedAt := bookingNow.Add(-time.Hour)
		bookings.On("GetByID", mock.Anything, int64(42)).Return(&domain.Booking{
			ID:          42,
			Email:       "anna@example.com",
			State:       domain.BookingConfirmed,
			ConfirmedAt: &confirmedAt,
		}, nil)
		bookings.On("Delete", mock.Anything, int64(42)).Return(nil)
		notifs.On("Notify", mock.Anything, domain.NotifBookingCancelled, "anna@example.com", mock.Anything).Return(true)

		res, err := svc.Delete(context.Background(), 42)
		assert.NoError(t, err)
		assert.True(t, res.WasConfirmed)
		notifs.AssertExpectations(t)
	})

	t.Run("pending booking deletes silently", func(t *testing.T) {
		bookings := new(MockBookingRepository)
		notifs := new(MockNotifier)
		svc := newTestService(bookings, new(MockWorkshopRepository), new(MockDiscountValidator), notifs)

		bookings.On("GetByID", mock.Anything, int64(42)).Return(&domain.Booking{
			ID:    42,
			State: domain.BookingPending,
		}, nil)
		bookings.On("Delete", mock.Anything, int64(42)).Return(nil)

		res, err := svc.Delete(context.Background(), 42)
		assert.NoError(t, err)
		assert.False(t, res.WasConfirmed)
		notifs.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCreateConfirmed_RollsBackWhenFull(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	discounts := new(MockDiscountValidator)
	svc := newTestService(bookings, workshops, discounts, new(MockNotifier))

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(false, nil)
	discounts.On("Validate", mock.Anything, "", int64(7), "anna@example.com", 3, 150.00).
		Return(&discount.Outcome{OK: true, Subtotal: 150.00, Total: 150.00}, nil)
	bookings.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 43
		}).Return(nil)
	bookings.On("Confirm", mock.Anything, int64(43), bookingNow).
		Return(&repository.ConfirmResult{Status: domain.ConfirmFull}, nil)
	bookings.On("Delete", mock.Anything, int64(43)).Return(nil)

	_, err := svc.CreateConfirmed(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 3,
	})
	assert.ErrorIs(t, err, ErrCapacityReached)
	bookings.AssertCalled(t, "Delete", mock.Anything, int64(43))
}

func TestCreateConfirmed_CleanupFailureStillReportsCapacity(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	discounts := new(MockDiscountValidator)
	svc := newTestService(bookings, workshops, discounts, new(MockNotifier))

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(false, nil)
	discounts.On("Validate", mock.Anything, "", int64(7), "anna@example.com", 3, 150.00).
		Return(&discount.Outcome{OK: true, Subtotal: 150.00, Total: 150.00}, nil)
	bookings.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 43
		}).Return(nil)
	bookings.On("Confirm", mock.Anything, int64(43), bookingNow).
		Return(&repository.ConfirmResult{Status: domain.ConfirmFull}, nil)
	bookings.On("Delete", mock.Anything, int64(43)).Return(gorm.ErrRecordNotFound)

	_, err := svc.CreateConfirmed(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 3,
	})
	assert.ErrorIs(t, err, ErrCapacityReached)
}

func TestCreateConfirmed_DuplicateConfirmedEmailBlocks(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	svc := newTestService(bookings, workshops, new(MockDiscountValidator), new(MockNotifier))

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(true, nil)

	_, err := svc.CreateConfirmed(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2,
	})
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateConfirmed_NoTokenIssued(t *testing.T) {
	bookings := new(MockBookingRepository)
	workshops := new(MockWorkshopRepository)
	discounts := new(MockDiscountValidator)
	notifs := new(MockNotifier)
	svc := newTestService(bookings, workshops, discounts, notifs)

	workshops.On("GetByID", mock.Anything, int64(7)).Return(activeWorkshop(), nil)
	bookings.On("HasConfirmedForEmail", mock.Anything, int64(7), "anna@example.com").Return(false, nil)
	discounts.On("Validate", mock.Anything, "", int64(7), "anna@example.com", 2, 100.00).
		Return(&discount.Outcome{OK: true, Subtotal: 100.00, Total: 100.00}, nil)

	var created *domain.Booking
	bookings.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Booking)
			created.ID = 44
		}).Return(nil)
	bookings.On("Confirm", mock.Anything, int64(44), bookingNow).
		Return(&repository.ConfirmResult{Status: domain.ConfirmOK, Booking: &domain.Booking{ID: 44, Email: "anna@example.com", State: domain.BookingConfirmed}}, nil)
	notifs.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)

	res, err := svc.CreateConfirmed(context.Background(), CreateBookingRequest{
		WorkshopID: 7, Name: "Anna", Email: "anna@example.com", Participants: 2,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.ConfirmOK, res.Status)
	assert.Empty(t, created.Token)
}

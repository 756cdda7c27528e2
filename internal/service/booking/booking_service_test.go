package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/kafka"
	"github.com/Domenick1991/gdsbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock-структуры

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByOwner(ctx context.Context, bookingID, ownerID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, bookingID, ownerID string, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockPricedOfferRepository struct {
	mock.Mock
}

func (m *MockPricedOfferRepository) SavePriced(ctx context.Context, priced *domain.PricedOffer) error {
	args := m.Called(ctx, priced)
	return args.Error(0)
}

func (m *MockPricedOfferRepository) GetPriced(ctx context.Context, ownerID string) (*domain.PricedOffer, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricedOffer), args.Error(1)
}

type MockGDSClient struct {
	mock.Mock
}

func (m *MockGDSClient) Search(ctx context.Context, params domain.SearchParams) ([]domain.FlightOffer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightOffer), args.Error(1)
}

func (m *MockGDSClient) Price(ctx context.Context, offer domain.FlightOffer) (domain.PricedQuote, error) {
	args := m.Called(ctx, offer)
	return args.Get(0).(domain.PricedQuote), args.Error(1)
}

func (m *MockGDSClient) Book(ctx context.Context, flightOffer json.RawMessage, travelers []domain.Traveler) (domain.BookingResult, error) {
	args := m.Called(ctx, flightOffer, travelers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.BookingResult), args.Error(1)
}

func (m *MockGDSClient) Cancel(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var fixedNow = time.UnixMilli(1717200000000)

type fixture struct {
	bookings *MockBookingRepository
	priced   *MockPricedOfferRepository
	gds      *MockGDSClient
	producer *MockProducer
	service  *BookingService
}

func newFixture() *fixture {
	f := &fixture{
		bookings: &MockBookingRepository{},
		priced:   &MockPricedOfferRepository{},
		gds:      &MockGDSClient{},
		producer: &MockProducer{},
	}
	f.service = NewBookingService(f.bookings, f.priced, f.gds,
		WithEvents(f.producer, "booking_events", "notifications"),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func pricedOffer() *domain.PricedOffer {
	return &domain.PricedOffer{
		OwnerID: "user-1",
		Offer: domain.PricedQuote{
			FlightOffers: []json.RawMessage{json.RawMessage(`{"id":"1","priced":true}`), json.RawMessage(`{"id":"1b"}`)},
		},
	}
}

func travelers() []domain.Traveler {
	return []domain.Traveler{json.RawMessage(`{"id":"1","name":{"firstName":"ADA","lastName":"LOVELACE"}}`)}
}

func bookingResult(t *testing.T, body string) domain.BookingResult {
	t.Helper()
	var r domain.BookingResult
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return r
}

// ============================ Book ============================

func TestBookingService_Book_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result := bookingResult(t, `{"pnr":"ABC123","flightDetails":{"carrier":"AA"}}`)

	f.priced.On("GetPriced", ctx, "user-1").Return(pricedOffer(), nil).Once()
	f.gds.On("Book", ctx, json.RawMessage(`{"id":"1","priced":true}`), travelers()).Return(result, nil).Once()
	f.bookings.On("Create", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.BookingID == "ABC123" &&
			b.OwnerID == "user-1" &&
			b.Status == domain.BookingStatusConfirmed &&
			string(b.FlightDetails) == `{"carrier":"AA"}`
	})).Return(nil).Once()
	f.producer.On("Publish", ctx, "booking_events", "ABC123", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCreated && e.OwnerID == "user-1"
	})).Return(nil).Once()
	f.producer.On("Publish", ctx, "notifications", "ABC123", mock.Anything).Return(nil).Once()

	got, err := f.service.Book(ctx, "user-1", travelers())

	assert.NoError(t, err)
	assert.Equal(t, result, got)
	f.priced.AssertExpectations(t)
	f.gds.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestBookingService_Book_FallbackIDAndProviderStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.priced.On("GetPriced", ctx, "user-1").Return(pricedOffer(), nil).Once()
	f.gds.On("Book", ctx, mock.Anything, mock.Anything).Return(bookingResult(t, `{"status":"pending"}`), nil).Once()
	f.bookings.On("Create", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.BookingID == "1717200000000" && b.Status == "pending" && string(b.FlightDetails) == "{}"
	})).Return(nil).Once()
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Book(ctx, "user-1", travelers())

	assert.NoError(t, err)
	f.bookings.AssertExpectations(t)
}

func TestBookingService_Book_ValidationAndState(t *testing.T) {
	ctx := context.Background()

	t.Run("No travelers", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.Book(ctx, "user-1", nil)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.EqualError(t, err, "Traveler information is required")
		f.priced.AssertNotCalled(t, "GetPriced", mock.Anything, mock.Anything)
	})

	t.Run("Never priced", func(t *testing.T) {
		f := newFixture()
		f.priced.On("GetPriced", ctx, "user-1").Return(nil, repository.ErrNotFound).Once()

		_, err := f.service.Book(ctx, "user-1", travelers())

		assert.ErrorIs(t, err, domain.ErrState)
		f.gds.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Priced offer without flight offers", func(t *testing.T) {
		f := newFixture()
		f.priced.On("GetPriced", ctx, "user-1").Return(&domain.PricedOffer{OwnerID: "user-1"}, nil).Once()

		_, err := f.service.Book(ctx, "user-1", travelers())

		assert.ErrorIs(t, err, domain.ErrState)
	})
}

func TestBookingService_Book_UpstreamFailureStoresNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	upstream := &domain.UpstreamError{Status: 400, Message: "SEGMENT SELL FAILURE"}

	f.priced.On("GetPriced", ctx, "user-1").Return(pricedOffer(), nil).Once()
	f.gds.On("Book", ctx, mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := f.service.Book(ctx, "user-1", travelers())

	assert.Same(t, upstream, err)
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Book_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.priced.On("GetPriced", ctx, "user-1").Return(pricedOffer(), nil).Once()
	f.gds.On("Book", ctx, mock.Anything, mock.Anything).Return(bookingResult(t, `{"id":"X1"}`), nil).Once()
	f.bookings.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.producer.On("Publish", ctx, mock.Anything, "X1", mock.Anything).Return(errors.New("broker unavailable")).Twice()

	_, err := f.service.Book(ctx, "user-1", travelers())

	assert.NoError(t, err)
	f.producer.AssertExpectations(t)
}

func TestBookingService_Book_TwiceCreatesTwoBookings(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryBookingRepository()
	priced := &MockPricedOfferRepository{}
	client := &MockGDSClient{}
	service := NewBookingService(store, priced, client)

	priced.On("GetPriced", ctx, "user-1").Return(pricedOffer(), nil).Twice()
	client.On("Book", ctx, mock.Anything, mock.Anything).Return(bookingResult(t, `{"id":"A"}`), nil).Once()
	client.On("Book", ctx, mock.Anything, mock.Anything).Return(bookingResult(t, `{"id":"B"}`), nil).Once()

	_, err := service.Book(ctx, "user-1", travelers())
	require.NoError(t, err)
	_, err = service.Book(ctx, "user-1", travelers())
	require.NoError(t, err)

	_, err = store.GetByOwner(ctx, "A", "user-1")
	assert.NoError(t, err)
	_, err = store.GetByOwner(ctx, "B", "user-1")
	assert.NoError(t, err)
}

func TestBookingService_Book_SameDerivedIDIsStoredTwice(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryBookingRepository()
	priced := &MockPricedOfferRepository{}
	client := &MockGDSClient{}
	service := NewBookingService(store, priced, client, WithClock(func() time.Time { return fixedNow }))

	priced.On("GetPriced", ctx, "user-1").Return(pricedOffer(), nil).Twice()
	client.On("Book", ctx, mock.Anything, mock.Anything).Return(bookingResult(t, `{"status":"confirmed"}`), nil).Twice()

	_, err := service.Book(ctx, "user-1", travelers())
	require.NoError(t, err)
	_, err = service.Book(ctx, "user-1", travelers())
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "Book", 2)
	got, err := service.Get(ctx, "user-1", "1717200000000")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)

	client.On("Cancel", ctx, "1717200000000").Return(nil).Once()
	require.NoError(t, service.Cancel(ctx, "user-1", "1717200000000"))

	got, err = service.Get(ctx, "user-1", "1717200000000")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)
}

// ============================ Get ============================

func TestBookingService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Own booking", func(t *testing.T) {
		f := newFixture()
		b := &domain.Booking{BookingID: "PNR1", OwnerID: "user-1", Status: domain.BookingStatusConfirmed}
		f.bookings.On("GetByOwner", ctx, "PNR1", "user-1").Return(b, nil).Once()

		got, err := f.service.Get(ctx, "user-1", "PNR1")

		assert.NoError(t, err)
		assert.Equal(t, b, got)
	})

	t.Run("Missing id", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.Get(ctx, "user-1", " ")

		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Foreign and missing look the same", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByOwner", ctx, "PNR1", "intruder").Return(nil, repository.ErrNotFound).Once()
		f.bookings.On("GetByOwner", ctx, "NOPE", "intruder").Return(nil, repository.ErrNotFound).Once()

		_, foreignErr := f.service.Get(ctx, "intruder", "PNR1")
		_, missingErr := f.service.Get(ctx, "intruder", "NOPE")

		assert.ErrorIs(t, foreignErr, domain.ErrNotFound)
		assert.Equal(t, foreignErr, missingErr)
	})
}

// ============================ Cancel ============================

func TestBookingService_Cancel_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	current := &domain.Booking{BookingID: "PNR1", OwnerID: "user-1", Status: domain.BookingStatusConfirmed}
	cancelled := &domain.Booking{BookingID: "PNR1", OwnerID: "user-1", Status: domain.BookingStatusCancelled}

	f.bookings.On("GetByOwner", ctx, "PNR1", "user-1").Return(current, nil).Once()
	f.gds.On("Cancel", ctx, "PNR1").Return(nil).Once()
	f.bookings.On("UpdateStatus", ctx, "PNR1", "user-1", domain.BookingStatusCancelled).Return(cancelled, nil).Once()
	f.producer.On("Publish", ctx, "booking_events", "PNR1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCancelled && e.Status == "cancelled"
	})).Return(nil).Once()
	f.producer.On("Publish", ctx, "notifications", "PNR1", mock.Anything).Return(nil).Once()

	err := f.service.Cancel(ctx, "user-1", "PNR1")

	assert.NoError(t, err)
	f.gds.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestBookingService_Cancel_UpstreamFailureKeepsStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	upstream := &domain.UpstreamError{Status: 500, Message: "provider unavailable"}

	f.bookings.On("GetByOwner", ctx, "PNR1", "user-1").Return(&domain.Booking{BookingID: "PNR1", OwnerID: "user-1"}, nil).Once()
	f.gds.On("Cancel", ctx, "PNR1").Return(upstream).Once()

	err := f.service.Cancel(ctx, "user-1", "PNR1")

	assert.Same(t, upstream, err)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Cancel_ForeignBookingNeverReachesGDS(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("GetByOwner", ctx, "PNR1", "intruder").Return(nil, repository.ErrNotFound).Once()

	err := f.service.Cancel(ctx, "intruder", "PNR1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.gds.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestBookingService_Cancel_StoreFailureEmitsPendingEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	storeErr := errors.New("db timeout")
	current := &domain.Booking{BookingID: "PNR1", OwnerID: "user-1", Status: domain.BookingStatusConfirmed}

	f.bookings.On("GetByOwner", ctx, "PNR1", "user-1").Return(current, nil).Once()
	f.gds.On("Cancel", ctx, "PNR1").Return(nil).Once()
	f.bookings.On("UpdateStatus", ctx, "PNR1", "user-1", domain.BookingStatusCancelled).Return(nil, storeErr).Once()
	f.producer.On("Publish", ctx, "booking_events", "PNR1", mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCancelPending && e.OwnerID == "user-1"
	})).Return(nil).Once()

	err := f.service.Cancel(ctx, "user-1", "PNR1")

	assert.ErrorIs(t, err, storeErr)
	f.producer.AssertExpectations(t)
	f.producer.AssertNotCalled(t, "Publish", ctx, "notifications", mock.Anything, mock.Anything)
}

func TestBookingService_CompleteCancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("Marks cancelled without calling GDS", func(t *testing.T) {
		f := newFixture()
		cancelled := &domain.Booking{BookingID: "PNR1", OwnerID: "user-1", Status: domain.BookingStatusCancelled}
		f.bookings.On("UpdateStatus", ctx, "PNR1", "user-1", domain.BookingStatusCancelled).Return(cancelled, nil).Once()
		f.producer.On("Publish", ctx, mock.Anything, "PNR1", mock.Anything).Return(nil)

		got, err := f.service.CompleteCancellation(ctx, "user-1", "PNR1")

		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, got.Status)
		f.gds.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	})

	t.Run("Unknown booking", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("UpdateStatus", ctx, "PNR1", "user-1", domain.BookingStatusCancelled).Return(nil, repository.ErrNotFound).Once()

		_, err := f.service.CompleteCancellation(ctx, "user-1", "PNR1")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

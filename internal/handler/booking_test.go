package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "cinebook/internal/booking"
    "cinebook/internal/middleware"
    "cinebook/internal/model"
    "cinebook/internal/repository"
    "cinebook/internal/stage"
    "cinebook/internal/utils"
)

// In-memory stand-ins for the engine's stores, just enough for the
// HTTP flow under test.

type stubShowings struct {
    mu       sync.Mutex
    statuses map[uint64]string
}

func (s *stubShowings) GetByID(_ context.Context, id uint64) (*model.Showing, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.statuses[id]
    if !ok {
        return nil, repository.ErrShowingNotFound
    }
    return &model.Showing{ID: id, RoomID: 1, MovieTitle: "Dune", Status: st}, nil
}

func (s *stubShowings) UpdateStatus(_ context.Context, id uint64, from, to string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.statuses[id] == from {
        s.statuses[id] = to
    }
    return nil
}

type stubRooms struct{ seats int }

func (s *stubRooms) SeatsForRoom(_ context.Context, _ uint64) ([]model.Seat, error) {
    out := make([]model.Seat, 0, s.seats)
    for i := 1; i <= s.seats; i++ {
        out = append(out, model.Seat{ID: uint64(i), RoomID: 1, RowLabel: "A", ColNumber: uint32(i), Category: model.SeatStandard, IsActive: true})
    }
    return out, nil
}

func (s *stubRooms) ActiveSeatCount(_ context.Context, _ uint64) (int, error) {
    return s.seats, nil
}

type stubTickets struct{}

func (stubTickets) PricesByIDs(_ context.Context, ids []uint64) (map[uint64]uint32, error) {
    out := make(map[uint64]uint32, len(ids))
    for _, id := range ids {
        if id == 1 {
            out[1] = 1000
        }
    }
    return out, nil
}

type stubReservations struct {
    mu     sync.Mutex
    nextID uint64
    claims map[uint64]uint64 // seat -> reservation (single showing)
    status map[uint64]string
    owner  map[uint64]uint64
}

func newStubReservations() *stubReservations {
    return &stubReservations{
        claims: make(map[uint64]uint64),
        status: make(map[uint64]string),
        owner:  make(map[uint64]uint64),
    }
}

func (s *stubReservations) ClaimedSeats(_ context.Context, _ uint64, seatIDs []uint64) ([]uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []uint64
    if len(seatIDs) == 0 {
        for seat := range s.claims {
            out = append(out, seat)
        }
        return out, nil
    }
    for _, seat := range seatIDs {
        if _, ok := s.claims[seat]; ok {
            out = append(out, seat)
        }
    }
    return out, nil
}

func (s *stubReservations) ClaimedSeatCount(_ context.Context, _ uint64) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.claims), nil
}

func (s *stubReservations) Create(_ context.Context, res *model.Reservation, details []model.ReservationDetail, qr func(uint64) []byte) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.nextID++
    res.ID = s.nextID
    res.CreatedAt = time.Now().UTC()
    res.QRPayload = qr(res.ID)
    for _, d := range details {
        s.claims[d.SeatID] = res.ID
    }
    s.status[res.ID] = res.Status
    s.owner[res.ID] = res.UserID
    return nil
}

func (s *stubReservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.status[id]
    if !ok {
        return nil, repository.ErrReservationNotFound
    }
    return &model.Reservation{ID: id, UserID: s.owner[id], ShowingID: 1, Status: st}, nil
}

func (s *stubReservations) CancelByID(_ context.Context, id uint64) (*model.Reservation, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.status[id]
    if !ok {
        return nil, repository.ErrReservationNotFound
    }
    if st == model.ReservationCancelled {
        return nil, repository.ErrAlreadyCancelled
    }
    s.status[id] = model.ReservationCancelled
    for seat, res := range s.claims {
        if res == id {
            delete(s.claims, seat)
        }
    }
    return &model.Reservation{ID: id, Status: model.ReservationCancelled}, nil
}

type stubReader struct{}

func (stubReader) GetViewForUser(_ context.Context, reservationID, _ uint64) (*repository.ReservationView, error) {
    return &repository.ReservationView{ID: reservationID, ShowingID: 1, Status: model.ReservationConfirmed}, nil
}

func (stubReader) ListByUser(_ context.Context, _ uint64) ([]repository.ReservationView, error) {
    return []repository.ReservationView{}, nil
}

type bookingFixture struct {
    e       *echo.Echo
    handler *BookingHandler
    stage   *stage.MemoryStore
}

func newBookingFixture(t *testing.T) *bookingFixture {
    t.Helper()
    st := stage.NewMemoryStore(10*time.Minute, time.Hour, time.Minute)
    t.Cleanup(st.Stop)
    engine := booking.NewEngine(
        &stubShowings{statuses: map[uint64]string{1: model.ShowingScheduled}},
        &stubRooms{seats: 4},
        stubTickets{},
        newStubReservations(),
        st,
        []byte("secret"),
    )
    return &bookingFixture{
        e:       echo.New(),
        handler: NewBookingHandler(engine, stubReader{}, st, ""),
        stage:   st,
    }
}

// request builds an authenticated echo context the way the JWT
// middleware would hand it to the handler.
func (f *bookingFixture) request(method, target, body string, userID uint64, sessionKey string) (echo.Context, *httptest.ResponseRecorder) {
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    c := f.e.NewContext(req, rec)
    c.Set(middleware.ContextUserID, userID)
    c.Set(middleware.ContextSessionKey, sessionKey)
    return c, rec
}

func TestStageSelectionEndpoint(t *testing.T) {
    f := newBookingFixture(t)

    c, rec := f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":1,"ticket_type_id":1},{"seat_id":2,"ticket_type_id":1}]}`, 7, "sess")
    require.NoError(t, f.handler.StageSelection(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp stageResp
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, uint32(2000), resp.TotalCents)
    assert.Equal(t, 2, resp.SeatCount)
}

func TestStageSelectionEndpointUnknownSeat(t *testing.T) {
    f := newBookingFixture(t)

    c, rec := f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":99,"ticket_type_id":1}]}`, 7, "sess")
    require.NoError(t, f.handler.StageSelection(c))
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetAndClearSelectionEndpoint(t *testing.T) {
    f := newBookingFixture(t)

    c, _ := f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":1,"ticket_type_id":1}]}`, 7, "sess")
    require.NoError(t, f.handler.StageSelection(c))

    c, rec := f.request(http.MethodGet, "/v1/selection", "", 7, "sess")
    require.NoError(t, f.handler.GetSelection(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    c, rec = f.request(http.MethodDelete, "/v1/selection", "", 7, "sess")
    require.NoError(t, f.handler.ClearSelection(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    c, rec = f.request(http.MethodGet, "/v1/selection", "", 7, "sess")
    require.NoError(t, f.handler.GetSelection(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommitEndpoint(t *testing.T) {
    f := newBookingFixture(t)

    c, _ := f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":1,"ticket_type_id":1}]}`, 7, "sess")
    require.NoError(t, f.handler.StageSelection(c))

    c, rec := f.request(http.MethodPost, "/v1/reservations/commit", "", 7, "sess")
    require.NoError(t, f.handler.Commit(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp receiptResp
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, uint64(1), resp.ReservationID)
    assert.Equal(t, uint32(1000), resp.TotalAmountCents)
    assert.NotEmpty(t, resp.QRPayload)
}

func TestCommitEndpointWithoutSelection(t *testing.T) {
    f := newBookingFixture(t)

    c, rec := f.request(http.MethodPost, "/v1/reservations/commit", "", 7, "sess")
    require.NoError(t, f.handler.Commit(c))
    require.Equal(t, http.StatusBadRequest, rec.Code)

    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, booking.ReasonNoActiveSelection, body["reason"])
}

func TestCommitEndpointSeatConflict(t *testing.T) {
    f := newBookingFixture(t)

    c, _ := f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":1,"ticket_type_id":1}]}`, 7, "a")
    require.NoError(t, f.handler.StageSelection(c))
    c, rec := f.request(http.MethodPost, "/v1/reservations/commit", "", 7, "a")
    require.NoError(t, f.handler.Commit(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    c, _ = f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":1,"ticket_type_id":1}]}`, 8, "b")
    require.NoError(t, f.handler.StageSelection(c))
    c, rec = f.request(http.MethodPost, "/v1/reservations/commit", "", 8, "b")
    require.NoError(t, f.handler.Commit(c))
    require.Equal(t, http.StatusConflict, rec.Code)

    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, booking.ReasonSeatConflict, body["reason"])
    assert.NotEmpty(t, body["conflict_seats"])
}

func TestCancelEndpointForeignReservation(t *testing.T) {
    f := newBookingFixture(t)

    c, _ := f.request(http.MethodPost, "/v1/selection",
        `{"showing_id":1,"items":[{"seat_id":1,"ticket_type_id":1}]}`, 7, "sess")
    require.NoError(t, f.handler.StageSelection(c))
    c, rec := f.request(http.MethodPost, "/v1/reservations/commit", "", 7, "sess")
    require.NoError(t, f.handler.Commit(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    c, rec = f.request(http.MethodPost, "/v1/reservations/1/cancel", "", 99, "other")
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, f.handler.Cancel(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

// The JWT middleware populates the identity the handlers rely on; an
// end-to-end request through it proves the sid claim reaches the
// staging layer.
func TestJWTAuthPopulatesSession(t *testing.T) {
    e := echo.New()
    secret := "jwt-secret"
    token, err := utils.NewAccessToken(secret, 7, "sess-key", model.RoleCustomer, 5)
    require.NoError(t, err)

    var gotUser uint64
    var gotSession string
    h := middleware.JWTAuth(secret)(func(c echo.Context) error {
        gotUser, _ = c.Get(middleware.ContextUserID).(uint64)
        gotSession, _ = c.Get(middleware.ContextSessionKey).(string)
        return c.NoContent(http.StatusOK)
    })

    req := httptest.NewRequest(http.MethodGet, "/v1/selection", nil)
    req.Header.Set("Authorization", "Bearer "+token.Token)
    rec := httptest.NewRecorder()
    require.NoError(t, h(e.NewContext(req, rec)))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, uint64(7), gotUser)
    assert.Equal(t, "sess-key", gotSession)
}

// Cancelling a showing is a staff operation; a customer token must be
// stopped by the role gate before the handler runs.
func TestCancelShowingRequiresAdminRole(t *testing.T) {
    e := echo.New()
    secret := "jwt-secret"
    chain := middleware.JWTAuth(secret)(middleware.RequireRole(model.RoleAdmin)(func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    }))

    customer, err := utils.NewAccessToken(secret, 7, "sess-a", model.RoleCustomer, 5)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodPost, "/v1/showings/1/cancel", nil)
    req.Header.Set("Authorization", "Bearer "+customer.Token)
    rec := httptest.NewRecorder()
    require.NoError(t, chain(e.NewContext(req, rec)))
    assert.Equal(t, http.StatusForbidden, rec.Code)

    admin, err := utils.NewAccessToken(secret, 8, "sess-b", model.RoleAdmin, 5)
    require.NoError(t, err)
    req = httptest.NewRequest(http.MethodPost, "/v1/showings/1/cancel", nil)
    req.Header.Set("Authorization", "Bearer "+admin.Token)
    rec = httptest.NewRecorder()
    require.NoError(t, chain(e.NewContext(req, rec)))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
    e := echo.New()
    h := middleware.JWTAuth("jwt-secret")(func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    })
    req := httptest.NewRequest(http.MethodGet, "/v1/selection", nil)
    rec := httptest.NewRecorder()
    require.NoError(t, h(e.NewContext(req, rec)))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

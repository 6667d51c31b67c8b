package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservalo/agenda-api/internal/dto"
	"github.com/reservalo/agenda-api/internal/models"
	appErrors "github.com/reservalo/agenda-api/pkg/errors"
	"github.com/reservalo/agenda-api/pkg/response"
)

type bookingServiceMock struct {
	booking      *models.Booking
	hadCollision bool
	createErr    error
	bookings     []models.Booking
	pagination   *models.Pagination
	listErr      error
	getErr       error
	updateErr    error
	deleteErr    error
	lastFilter   models.BookingFilter
	deletedID    string
}

func (m *bookingServiceMock) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, bool, error) {
	if m.createErr != nil {
		return nil, false, m.createErr
	}
	return m.booking, m.hadCollision, nil
}

func (m *bookingServiceMock) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, nil, m.listErr
	}
	return m.bookings, m.pagination, nil
}

func (m *bookingServiceMock) Get(ctx context.Context, id string) (*models.Booking, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.booking, nil
}

func (m *bookingServiceMock) Update(ctx context.Context, id string, req dto.UpdateBookingRequest) (*models.Booking, bool, error) {
	if m.updateErr != nil {
		return nil, false, m.updateErr
	}
	return m.booking, m.hadCollision, nil
}

func (m *bookingServiceMock) Delete(ctx context.Context, id string, meta dto.RequestMeta) error {
	m.deletedID = id
	return m.deleteErr
}

func TestBookingHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		booking:      &models.Booking{ID: "b-1", CustomerName: "Ada Lovelace", Date: "2026-03-02", Time: "09:00", DurationMinutes: 60, Status: models.BookingStatusPending},
		hadCollision: true,
	}
	handler := NewBookingHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateBookingRequest{CustomerName: "Ada Lovelace", Date: "2026-03-02", Time: "09:00"})
	c, w := newGinContext(http.MethodPost, "/bookings", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var body response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, true, body.Meta["had_collision"])
}

func TestBookingHandlerCreateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(&bookingServiceMock{})

	c, w := newGinContext(http.MethodPost, "/bookings", []byte("not json"))

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerCreateOutsideWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		createErr: appErrors.Clone(appErrors.ErrOutsideWindow, "time 16:30 with duration 60 minutes falls outside the 09:00-17:00 window"),
	}
	handler := NewBookingHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateBookingRequest{CustomerName: "Ada Lovelace", Date: "2026-03-02", Time: "16:30"})
	c, w := newGinContext(http.MethodPost, "/bookings", payload)

	handler.Create(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrOutsideWindow.Code, body.Error.Code)
}

func TestBookingHandlerListMapsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	status := models.BookingStatusConfirmed
	mockSvc := &bookingServiceMock{
		bookings:   []models.Booking{{ID: "b-1", Status: status}},
		pagination: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 21},
	}
	handler := NewBookingHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/bookings?date=2026-03-02&status=confirmed&customer=ada&page=2&page_size=10", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-03-02", mockSvc.lastFilter.DateFrom)
	assert.Equal(t, "2026-03-02", mockSvc.lastFilter.DateTo)
	require.NotNil(t, mockSvc.lastFilter.Status)
	assert.Equal(t, status, *mockSvc.lastFilter.Status)
	assert.Equal(t, "ada", mockSvc.lastFilter.Search)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestBookingHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "booking not found")}
	handler := NewBookingHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/bookings/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		booking: &models.Booking{ID: "b-1", CustomerName: "Ada Lovelace", Status: models.BookingStatusConfirmed},
	}
	handler := NewBookingHandler(mockSvc)

	status := models.BookingStatusConfirmed
	payload, _ := json.Marshal(dto.UpdateBookingRequest{Status: &status})
	c, w := newGinContext(http.MethodPatch, "/bookings/b-1", payload)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, false, body.Meta["had_collision"])
}

func TestBookingHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{}
	handler := NewBookingHandler(mockSvc)

	c, w := newGinContext(http.MethodDelete, "/bookings/b-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "b-1", mockSvc.deletedID)
}

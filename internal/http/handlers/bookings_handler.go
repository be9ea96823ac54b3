package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/http/response"
	"github.com/mahyar-jbr/dog-wash-booking/internal/service"
)

// BookingsHandler serves the customer-facing endpoints.
type BookingsHandler struct {
	Service     service.BookingService
	createGuard []func(http.Handler) http.Handler
}

// NewBookingsHandler builds the handler. createGuard wraps only the
// booking submission (rate limiting, idempotency).
func NewBookingsHandler(svc service.BookingService, createGuard ...func(http.Handler) http.Handler) *BookingsHandler {
	return &BookingsHandler{Service: svc, createGuard: createGuard}
}

func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/store-hours", h.storeHours)
	r.Get("/slots", h.slots)
	r.With(h.createGuard...).Post("/bookings", h.create)
	return r
}

type storeHoursRes struct {
	Date string `json:"date"`
	domain.StoreHours
}

func (h *BookingsHandler) storeHours(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "date is required", response.CodeInvalidInput, "date")
		return
	}
	hours, err := h.Service.StoreHours(r.Context(), date)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, storeHoursRes{Date: date, StoreHours: hours})
}

func (h *BookingsHandler) slots(w http.ResponseWriter, r *http.Request) {
	q, err := parseSlotQuery(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	avail, err := h.Service.AvailableSlots(r.Context(), q)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, avail)
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingDraft
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	b, err := h.Service.CreateBooking(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, b)
}

func parseSlotQuery(r *http.Request) (*domain.SlotQuery, error) {
	v := r.URL.Query()
	q := &domain.SlotQuery{
		Date:          v.Get("date"),
		WashingMethod: domain.WashingMethod(v.Get("washing_method")),
	}
	var err error
	if q.NumberOfDogs, err = queryInt(v.Get("number_of_dogs"), "number_of_dogs"); err != nil {
		return nil, err
	}
	if q.Duration1, err = queryInt(v.Get("duration1"), "duration1"); err != nil {
		return nil, err
	}
	if raw := v.Get("duration2"); raw != "" {
		d2, err := queryInt(raw, "duration2")
		if err != nil {
			return nil, err
		}
		q.Duration2 = &d2
	}
	return q, nil
}

// queryInt parses an optional integer parameter; empty means zero.
func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be a whole number")
	}
	return n, nil
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/http/middleware"
	"github.com/mahyar-jbr/dog-wash-booking/internal/http/response"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo"
	"github.com/mahyar-jbr/dog-wash-booking/internal/service"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/auth"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/logger"
)

type AdminHandler struct {
	Service    service.BookingService
	Passphrase *auth.Passphrase
	Secret     string
	SessionTTL time.Duration
	loginGuard []func(http.Handler) http.Handler
}

// NewAdminHandler builds the admin endpoints. A nil passphrase disables login.
func NewAdminHandler(svc service.BookingService, passphrase *auth.Passphrase, secret string, ttl time.Duration, loginGuard ...func(http.Handler) http.Handler) *AdminHandler {
	return &AdminHandler{
		Service:    svc,
		Passphrase: passphrase,
		Secret:     secret,
		SessionTTL: ttl,
		loginGuard: loginGuard,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(h.loginGuard...).Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.Secret))
		r.Get("/bookings", h.list)
		r.Post("/bookings", h.create)
		r.Get("/bookings/{id}", h.get)
		r.Patch("/bookings/{id}", h.update)
		r.Delete("/bookings/{id}", h.delete)
	})
	return r
}

type loginRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if h.Passphrase == nil {
		response.Unauthorized(w, "Admin login is not configured")
		return
	}
	if !h.Passphrase.Matches(in.Passphrase) {
		logger.WarnContext(r.Context(), "Admin login rejected")
		response.Unauthorized(w, "Invalid passphrase")
		return
	}

	token, err := auth.NewAdminSession(h.Secret, h.SessionTTL)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, loginRes{Token: token, ExpiresAt: time.Now().Add(h.SessionTTL).UTC()})
}

type listRes struct {
	Bookings []domain.Booking `json:"bookings"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	f := domain.BookingFilter{Date: v.Get("date")}

	if raw := v.Get("status"); raw != "" {
		st, ok := domain.ParseBookingStatus(raw)
		if !ok {
			response.WriteErrorWithDetails(w, http.StatusBadRequest,
				"invalid status (allowed: confirmed, pending, cancelled)", response.CodeInvalidInput, "status")
			return
		}
		f.Status = &st
	}
	var err error
	if f.Limit, err = pageParam(v.Get("limit"), "limit"); err != nil {
		response.FromError(w, r, err)
		return
	}
	if f.Offset, err = pageParam(v.Get("offset"), "offset"); err != nil {
		response.FromError(w, r, err)
		return
	}

	bs, err := h.Service.ListBookings(r.Context(), f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if bs == nil {
		bs = []domain.Booking{}
	}
	limit, offset := repo.NormalizePage(f.Limit, f.Offset)
	response.WriteJSON(w, http.StatusOK, listRes{Bookings: bs, Limit: limit, Offset: offset})
}

func (h *AdminHandler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.GetBooking(r.Context(), bookingID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, b)
}

func (h *AdminHandler) create(w http.ResponseWriter, r *http.Request) {
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
	logger.InfoContext(r.Context(), "Admin created booking", "booking_id", b.ID)
	response.WriteJSON(w, http.StatusCreated, b)
}

func (h *AdminHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch domain.BookingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	b, err := h.Service.UpdateBooking(r.Context(), bookingID(r), patch)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, b)
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteBooking(r.Context(), bookingID(r)); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bookingID reads the {id} path segment. IDs are stored uppercase.
func bookingID(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
}

func pageParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(field, "must be a non-negative whole number")
	}
	return n, nil
}

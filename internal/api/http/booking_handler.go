package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type bookingItemPayload struct {
	EquipmentID int32            `json:"equipment_id"`
	Quantity    int32            `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	UnitIDs     []int32          `json:"unit_ids,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// bookingPayload accepts either items or the single equipment_id/quantity form.
type bookingPayload struct {
	CustomerID  int32                `json:"customer_id"`
	SiteID      *int32               `json:"site_id,omitempty"`
	StartDate   string               `json:"start_date"`
	EndDate     string               `json:"end_date"`
	StartTime   *string              `json:"start_time,omitempty"`
	EndTime     *string              `json:"end_time,omitempty"`
	Items       []bookingItemPayload `json:"items,omitempty"`
	EquipmentID int32                `json:"equipment_id,omitempty"`
	Quantity    int32                `json:"quantity,omitempty"`
	UnitIDs     []int32              `json:"unit_ids,omitempty"`
	TotalPrice  *decimal.Decimal     `json:"total_price,omitempty"`
	Notes       string               `json:"notes,omitempty"`
}

func (p bookingPayload) toRequest() (service.BookingRequest, error) {
	req := service.BookingRequest{
		CustomerID:  p.CustomerID,
		SiteID:      p.SiteID,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		EquipmentID: p.EquipmentID,
		Quantity:    p.Quantity,
		UnitIDs:     p.UnitIDs,
		TotalPrice:  p.TotalPrice,
		Notes:       p.Notes,
	}

	var err error
	if req.StartDate, err = parseOptionalDate("start_date", p.StartDate); err != nil {
		return req, err
	}
	if req.EndDate, err = parseOptionalDate("end_date", p.EndDate); err != nil {
		return req, err
	}

	for _, item := range p.Items {
		req.Items = append(req.Items, service.BookingItemInput{
			EquipmentID: item.EquipmentID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitIDs:     item.UnitIDs,
			Notes:       item.Notes,
		})
	}
	return req, nil
}

type statusPayload struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type BookingHandler struct {
	bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/bookings", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/bookings", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/bookings/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/bookings/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/bookings/{id}", h.MarkAsLost).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/bookings/{id}/status", h.ChangeStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/bookings/{id}/permanent", h.DeletePermanently).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/bookings/{id}/movements", h.Movements).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/bookings/{id}/activity", h.Activity).Methods(http.MethodGet)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var payload bookingPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload bookingPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.bookings.UpdateBooking(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload statusPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	status := domain.BookingStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
	booking, err := h.bookings.ChangeStatus(r.Context(), actor, id, status, payload.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// MarkAsLost cancels the booking; the optional reason query parameter is kept in the audit note.
func (h *BookingHandler) MarkAsLost(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.bookings.MarkAsLost(r.Context(), actor, id, r.URL.Query().Get("reason"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) DeletePermanently(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.bookings.DeletePermanently(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// List accepts status (repeatable or comma separated), customer_id, page and page_size.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	filter := domain.BookingFilter{}
	for _, raw := range r.URL.Query()["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, domain.BookingStatus(strings.ToUpper(s)))
			}
		}
	}

	var err error
	if filter.CustomerID, err = queryInt32(r, "customer_id", 0); err != nil {
		writeError(w, err)
		return
	}
	if filter.Page, err = queryInt32(r, "page", 1); err != nil {
		writeError(w, err)
		return
	}
	if filter.PageSize, err = queryInt32(r, "page_size", 0); err != nil {
		writeError(w, err)
		return
	}

	bookings, total, err := h.bookings.ListBookings(r.Context(), actor, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Booking]{Items: bookings, Total: total})
}

func (h *BookingHandler) Movements(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	movements, err := h.bookings.ListBookingMovements(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.StockMovement]{Items: movements, Total: int32(len(movements))})
}

func (h *BookingHandler) Activity(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.bookings.ListBookingActivity(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.ActivityLog]{Items: entries, Total: int32(len(entries))})
}

func parseOptionalDate(field, raw string) (t time.Time, err error) {
	if raw == "" {
		return t, nil
	}
	t, err = utils.ParseDate(raw)
	if err != nil {
		return t, domain.NewValidationError("%s: %v", field, err)
	}
	return t, nil
}

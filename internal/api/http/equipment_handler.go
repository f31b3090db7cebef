package http

import (
	"net/http"
	"strings"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type equipmentPayload struct {
	Name          string                `json:"name"`
	TrackingMode  domain.TrackingMode   `json:"tracking_mode,omitempty"`
	TotalStock    int32                 `json:"total_stock"`
	PricePerDay   decimal.Decimal       `json:"price_per_day"`
	RentalPeriods []domain.RentalPeriod `json:"rental_periods,omitempty"`
}

type pricingPayload struct {
	RentalPeriods []domain.RentalPeriod `json:"rental_periods"`
	PricePerDay   *decimal.Decimal      `json:"price_per_day,omitempty"`
}

type stockPayload struct {
	TotalStock int32  `json:"total_stock"`
	Reason     string `json:"reason,omitempty"`
}

type conditionPayload struct {
	From     domain.StockBucket `json:"from"`
	To       domain.StockBucket `json:"to"`
	Quantity int32              `json:"quantity"`
	Reason   string             `json:"reason,omitempty"`
}

type unitPayload struct {
	SerialNumber string `json:"serial_number"`
	InternalCode string `json:"internal_code,omitempty"`
}

type unitStatusPayload struct {
	Status domain.UnitStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

type EquipmentHandler struct {
	equipment    service.EquipmentService
	units        service.UnitService
	availability service.AvailabilityChecker
	pricing      service.PricingCalculator
}

func NewEquipmentHandler(equipment service.EquipmentService, units service.UnitService, availability service.AvailabilityChecker, pricing service.PricingCalculator) *EquipmentHandler {
	return &EquipmentHandler{
		equipment:    equipment,
		units:        units,
		availability: availability,
		pricing:      pricing,
	}
}

func (h *EquipmentHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/equipment", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/equipment", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/equipment/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/equipment/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/equipment/{id}/availability", h.Availability).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/equipment/{id}/quote", h.Quote).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/equipment/{id}/movements", h.Movements).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/equipment/{id}/pricing", h.UpdatePricing).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/equipment/{id}/stock", h.AdjustStock).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/equipment/{id}/condition", h.MoveCondition).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/equipment/{id}/units", h.ListUnits).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/equipment/{id}/units", h.AddUnit).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/equipment/{id}/units/{unitId}/status", h.ChangeUnitStatus).Methods(http.MethodPut)
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var payload equipmentPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	e := &domain.Equipment{
		Name:          payload.Name,
		TrackingMode:  domain.TrackingMode(strings.ToUpper(string(payload.TrackingMode))),
		TotalStock:    payload.TotalStock,
		PricePerDay:   payload.PricePerDay,
		RentalPeriods: payload.RentalPeriods,
	}
	if err := h.equipment.CreateEquipment(r.Context(), actor, e); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	page, err := queryInt32(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	items, total, err := h.equipment.ListEquipment(r.Context(), actor, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Equipment]{Items: items, Total: total})
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	e, err := h.equipment.GetEquipment(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.equipment.DeleteEquipment(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability answers start_date, end_date and quantity. A rejection is still a 200
// with available=false and the reason.
func (h *EquipmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quantity, err := queryInt32(r, "quantity", 1)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.availability.CheckAvailability(r.Context(), actor.TenantID, id, window, quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Quote prices quantity units either for days or for the start_date..end_date window.
func (h *EquipmentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	days, err := queryInt32(r, "days", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if days == 0 {
		window, err := windowFromQuery(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if days, err = utils.RentalDays(window.Start, window.End); err != nil {
			writeError(w, domain.NewValidationError("%v", err))
			return
		}
	}
	quantity, err := queryInt32(r, "quantity", 1)
	if err != nil {
		writeError(w, err)
		return
	}

	quote, err := h.pricing.Price(r.Context(), actor.TenantID, id, days, quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *EquipmentHandler) Movements(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := queryInt32(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	movements, total, err := h.equipment.ListMovements(r.Context(), actor, id, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.StockMovement]{Items: movements, Total: total})
}

func (h *EquipmentHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload pricingPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.equipment.UpdatePricing(r.Context(), actor, id, payload.RentalPeriods, payload.PricePerDay)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EquipmentHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload stockPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.equipment.AdjustStock(r.Context(), actor, id, payload.TotalStock, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EquipmentHandler) MoveCondition(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload conditionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.equipment.MoveCondition(r.Context(), actor, id, payload.From, payload.To, payload.Quantity, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EquipmentHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	units, err := h.units.ListUnits(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.EquipmentUnit]{Items: units, Total: int32(len(units))})
}

func (h *EquipmentHandler) AddUnit(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload unitPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	unit, err := h.units.AddUnit(r.Context(), actor, id, payload.SerialNumber, payload.InternalCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

func (h *EquipmentHandler) ChangeUnitStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	unitID, err := pathID(r, "unitId")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload unitStatusPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	status := domain.UnitStatus(strings.ToUpper(string(payload.Status)))
	unit, err := h.units.ChangeStatus(r.Context(), actor, id, unitID, status, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func windowFromQuery(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	if q.Get("start_date") == "" || q.Get("end_date") == "" {
		return domain.DateRange{}, domain.NewValidationError("start_date and end_date are required")
	}
	start, err := parseOptionalDate("start_date", q.Get("start_date"))
	if err != nil {
		return domain.DateRange{}, err
	}
	end, err := parseOptionalDate("end_date", q.Get("end_date"))
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{Start: start, End: end}, nil
}

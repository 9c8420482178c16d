package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/service"
)

type createRentalRequest struct {
	ToolID        int32            `json:"tool_id"`
	MemberID      int32            `json:"member_id"`
	StartDate     string           `json:"start_date"`
	EndDate       string           `json:"end_date"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type returnRentalRequest struct {
	ActualReturnDate string `json:"actual_return_date,omitempty"`
	Comment          string `json:"comment"`
}

type listRentalsResponse struct {
	Rentals    []domain.Rental `json:"rentals"`
	TotalCount int32           `json:"total_count"`
	Page       int32           `json:"page"`
	PageSize   int32           `json:"page_size"`
}

func parseDate(field, value string) (time.Time, error) {
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", domain.ErrValidation, field, value)
	}
	return d, nil
}

func (h *Handler) createRental(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	memberID := req.MemberID
	if memberID == 0 && !actor.IsAdmin() {
		memberID = actor.UserID
	}
	rental, err := h.svc.Rentals.CreateRental(r.Context(), actor, service.CreateRentalInput{
		ToolID:        req.ToolID,
		MemberID:      memberID,
		StartDate:     start,
		EndDate:       end,
		PriceOverride: req.PriceOverride,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

func (h *Handler) approveRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.svc.Rentals.ApproveRental(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *Handler) rejectRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commentRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	rental, err := h.svc.Rentals.RejectRental(r.Context(), actorFrom(r), id, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *Handler) returnRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req returnRentalRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	var returned *time.Time
	if req.ActualReturnDate != "" {
		d, err := parseDate("actual_return_date", req.ActualReturnDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		returned = &d
	}
	rental, err := h.svc.Rentals.ReturnRental(r.Context(), actorFrom(r), id, returned, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *Handler) deleteRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Rentals.DeleteRental(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.svc.Rentals.GetRental(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *Handler) rentalHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := h.svc.Rentals.GetRentalHistory(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// listRentals accepts status (comma separated), member_id, tool_id, from, to,
// page and page_size query parameters.
func (h *Handler) listRentals(w http.ResponseWriter, r *http.Request) {
	filter, err := rentalFilterFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rentals, total, err := h.svc.Rentals.ListRentals(r.Context(), actorFrom(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Normalize()
	writeJSON(w, http.StatusOK, listRentalsResponse{Rentals: rentals, TotalCount: total, Page: filter.Page, PageSize: filter.PageSize})
}

func rentalFilterFrom(r *http.Request) (domain.RentalFilter, error) {
	q := r.URL.Query()
	var (
		filter domain.RentalFilter
		err    error
	)
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.RentalStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	if filter.MemberID, err = queryInt32(r, "member_id"); err != nil {
		return filter, err
	}
	if filter.ToolID, err = queryInt32(r, "tool_id"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt32(r, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt32(r, "page_size"); err != nil {
		return filter, err
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(key); raw != "" {
			d, err := parseDate(key, raw)
			if err != nil {
				return filter, err
			}
			*dst = &d
		}
	}
	return filter, nil
}

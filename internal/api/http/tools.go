package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/service"
)

type addToolRequest struct {
	Name                      string                       `json:"name"`
	Description               string                       `json:"description"`
	WeeklyRate                decimal.Decimal              `json:"weekly_rate"`
	Status                    domain.ToolStatus            `json:"status,omitempty"`
	MaintenanceImportance     domain.MaintenanceImportance `json:"maintenance_importance,omitempty"`
	MaintenanceIntervalMonths *int32                       `json:"maintenance_interval_months,omitempty"`
	LastMaintenanceDate       string                       `json:"last_maintenance_date,omitempty"`
}

type toolStatusRequest struct {
	Status domain.ToolStatus `json:"status"`
}

type maintenanceRequest struct {
	PerformedOn    string           `json:"performed_on,omitempty"`
	RepairCost     *decimal.Decimal `json:"repair_cost,omitempty"`
	ChargeMemberID int32            `json:"charge_member_id,omitempty"`
	Note           string           `json:"note,omitempty"`
}

func (h *Handler) addTool(w http.ResponseWriter, r *http.Request) {
	var req addToolRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tool := &domain.Tool{
		Name:                      req.Name,
		Description:               req.Description,
		WeeklyRate:                req.WeeklyRate,
		Status:                    req.Status,
		MaintenanceImportance:     req.MaintenanceImportance,
		MaintenanceIntervalMonths: req.MaintenanceIntervalMonths,
	}
	if req.LastMaintenanceDate != "" {
		d, err := parseDate("last_maintenance_date", req.LastMaintenanceDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tool.LastMaintenanceDate = &d
	}
	if err := h.svc.Tools.AddTool(r.Context(), actorFrom(r), tool); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tool)
}

func (h *Handler) getTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tool, err := h.svc.Tools.GetTool(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.svc.Tools.ListTools(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func (h *Handler) maintenanceDue(w http.ResponseWriter, r *http.Request) {
	tools, err := h.svc.Tools.MaintenanceDue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

func (h *Handler) setToolStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req toolStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tool, err := h.svc.Tools.SetToolStatus(r.Context(), actorFrom(r), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (h *Handler) recordMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req maintenanceRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	var performed time.Time
	if req.PerformedOn != "" {
		if performed, err = parseDate("performed_on", req.PerformedOn); err != nil {
			writeError(w, r, err)
			return
		}
	}
	tool, err := h.svc.Tools.RecordMaintenance(r.Context(), actorFrom(r), service.MaintenanceInput{
		ToolID:         id,
		PerformedOn:    performed,
		RepairCost:     req.RepairCost,
		ChargeMemberID: req.ChargeMemberID,
		Note:           req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (h *Handler) deleteTool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Tools.DeleteTool(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/service"
)

type addMemberRequest struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	MembershipExpiresOn string `json:"membership_expires_on"`
}

type renewRequest struct {
	ExpiresOn string           `json:"expires_on"`
	Fee       *decimal.Decimal `json:"fee,omitempty"`
}

type paymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type chargeRequest struct {
	Type        domain.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expires, err := parseDate("membership_expires_on", req.MembershipExpiresOn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	member := &domain.Member{Name: req.Name, Email: req.Email, MembershipExpiresOn: expires}
	if err := h.svc.Members.AddMember(r.Context(), actorFrom(r), member); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	member, err := h.svc.Members.GetMember(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) renewMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req renewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expires, err := parseDate("expires_on", req.ExpiresOn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	member, err := h.svc.Members.RenewMembership(r.Context(), actorFrom(r), id, expires, req.Fee)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := queryInt32(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, total, err := h.svc.Ledger.ListTransactions(r.Context(), actorFrom(r), id, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "total_count": total})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.svc.Ledger.RecordPayment(r.Context(), actorFrom(r), id, req.Amount, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) chargeMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req chargeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.svc.Ledger.ChargeMember(r.Context(), actorFrom(r), service.ChargeInput{
		MemberID:    id,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) settleTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.svc.Ledger.SettleTransaction(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

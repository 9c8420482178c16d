package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/security"
	"toolshed-backend/internal/service"
)

const requestIDHeader = "X-Request-ID"

// Services bundles what the JSON API exposes.
type Services struct {
	Rentals service.RentalService
	Ledger  service.LedgerService
	Tools   service.ToolService
	Members service.MemberService
}

type Handler struct {
	svc          Services
	tokenManager security.TokenManager
}

func NewHandler(svc Services, tm security.TokenManager) *Handler {
	return &Handler{svc: svc, tokenManager: tm}
}

// NewRouter registers every route. Everything under /api/v1 needs a bearer token.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(h.authMiddleware)

	api.HandleFunc("/rentals", h.createRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals", h.listRentals).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id:[0-9]+}", h.getRental).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id:[0-9]+}", h.deleteRental).Methods(http.MethodDelete)
	api.HandleFunc("/rentals/{id:[0-9]+}/approve", h.approveRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id:[0-9]+}/reject", h.rejectRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id:[0-9]+}/return", h.returnRental).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{id:[0-9]+}/history", h.rentalHistory).Methods(http.MethodGet)

	api.HandleFunc("/members", h.addMember).Methods(http.MethodPost)
	api.HandleFunc("/members/{id:[0-9]+}", h.getMember).Methods(http.MethodGet)
	api.HandleFunc("/members/{id:[0-9]+}/renew", h.renewMembership).Methods(http.MethodPost)
	api.HandleFunc("/members/{id:[0-9]+}/transactions", h.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/members/{id:[0-9]+}/payments", h.recordPayment).Methods(http.MethodPost)
	api.HandleFunc("/members/{id:[0-9]+}/charges", h.chargeMember).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}/settle", h.settleTransaction).Methods(http.MethodPost)

	api.HandleFunc("/tools", h.addTool).Methods(http.MethodPost)
	api.HandleFunc("/tools", h.listTools).Methods(http.MethodGet)
	api.HandleFunc("/tools/maintenance-due", h.maintenanceDue).Methods(http.MethodGet)
	api.HandleFunc("/tools/{id:[0-9]+}", h.getTool).Methods(http.MethodGet)
	api.HandleFunc("/tools/{id:[0-9]+}", h.deleteTool).Methods(http.MethodDelete)
	api.HandleFunc("/tools/{id:[0-9]+}/status", h.setToolStatus).Methods(http.MethodPost)
	api.HandleFunc("/tools/{id:[0-9]+}/maintenance", h.recordMaintenance).Methods(http.MethodPost)
	return router
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logger.DebugContext(ctx, "http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type actorKey struct{}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeErrorBody(w, http.StatusUnauthorized, "unauthenticated", "authorization token is not provided")
			return
		}
		claims, err := h.tokenManager.ValidateToken(token)
		if err != nil {
			writeErrorBody(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, claims.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(r *http.Request) domain.Actor {
	actor, _ := r.Context().Value(actorKey{}).(domain.Actor)
	return actor
}

func pathID(r *http.Request) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, key string) (int32, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return int32(n), nil
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Warn("failed to encode response", "error", err)
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeErrorBody(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errorBody{Error: msg, Code: kind})
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBlocked):
		return http.StatusLocked
	case errors.Is(err, domain.ErrMembershipExpired):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeErrorBody(w, code, domain.ErrorCode(err), msg)
}

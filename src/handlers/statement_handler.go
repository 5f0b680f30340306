// backend/src/handlers/statement_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/ledgerview/backend/src/logger"
	"github.com/username/ledgerview/backend/src/model"
	"github.com/username/ledgerview/backend/src/processors"
	"github.com/username/ledgerview/backend/src/services"
	"github.com/username/ledgerview/backend/src/utils"
)

const defaultExportListLimit = 50

type StatementHandler struct {
	statements *services.StatementService
	exports    *services.ExportService
}

func NewStatementHandler(statements *services.StatementService, exports *services.ExportService) *StatementHandler {
	return &StatementHandler{statements: statements, exports: exports}
}

// linkedUser resolves the caller and insists on an aggregator customer.
func linkedUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.HasBankLink() {
		sendServiceError(w, r, services.ErrNoCustomer)
		return nil, false
	}
	return user, true
}

func (h *StatementHandler) HandleGetBalanceSheet(w http.ResponseWriter, r *http.Request) {
	bankID, ok := bankFilter(w, r)
	if !ok {
		return
	}
	user, ok := linkedUser(w, r)
	if !ok {
		return
	}
	bs, err := h.statements.BalanceSheet(r.Context(), user.CustomerID, bankID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bs)
}

func (h *StatementHandler) HandleGetProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	bankID, ok := bankFilter(w, r)
	if !ok {
		return
	}
	user, ok := linkedUser(w, r)
	if !ok {
		return
	}
	pl, err := h.statements.ProfitAndLoss(r.Context(), user.CustomerID, bankID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, pl)
}

func (h *StatementHandler) HandleGetCashFlow(w http.ResponseWriter, r *http.Request) {
	bankID, ok := bankFilter(w, r)
	if !ok {
		return
	}
	user, ok := linkedUser(w, r)
	if !ok {
		return
	}
	cf, err := h.statements.CashFlow(r.Context(), user.CustomerID, bankID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cf)
}

func (h *StatementHandler) HandleGetPeriods(w http.ResponseWriter, r *http.Request) {
	g, err := processors.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	bankID, ok := bankFilter(w, r)
	if !ok {
		return
	}
	user, ok := linkedUser(w, r)
	if !ok {
		return
	}
	series, err := h.statements.Periods(r.Context(), user.CustomerID, bankID, g)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, series)
}

// HandleExportPDF streams the requested statement as a PDF attachment.
func (h *StatementHandler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	kind, err := services.ParseReportKind(chi.URLParam(r, "kind"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	bankID, ok := bankFilter(w, r)
	if !ok {
		return
	}
	user, ok := linkedUser(w, r)
	if !ok {
		return
	}

	res, err := h.exports.Export(r.Context(), user, kind, bankID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("Statement exported", "kind", kind, "bytes", len(res.Data), "exportID", res.Record.ID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		logger.FromContext(r.Context()).Warn("Failed to write PDF response", "error", err)
	}
}

func (h *StatementHandler) HandleListExports(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit := defaultExportListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.SendJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	exports, err := h.exports.List(userID, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list exports", "error", err)
		utils.SendJSONError(w, "Failed to list exports", http.StatusInternalServerError)
		return
	}
	if exports == nil {
		exports = []model.ReportExport{}
	}
	utils.WriteJSON(w, http.StatusOK, exports)
}

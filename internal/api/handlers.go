package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/SamuelPereira26/Finhouse/internal/analytics"
	"github.com/SamuelPereira26/Finhouse/internal/bot"
	"github.com/SamuelPereira26/Finhouse/internal/ingest"
	"github.com/SamuelPereira26/Finhouse/internal/logger"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

// writeServiceError maps pipeline errors to status codes: bad input is 400,
// a missing record 404, anything else 500.
func (h *handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ingest.IsValidation(err):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ingest.ErrValidation, err)
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ingest.ErrValidation, key, v)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ingest.ErrValidation, key, v)
	}
	return f, nil
}

func (h *handler) uploadImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	in := ingest.FileInput{FileName: header.Filename, Content: content}
	if fileID := r.FormValue("uploaded_file_id"); fileID != "" {
		done, err := h.svc.IsFileProcessed(r.Context(), fileID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if done {
			WriteError(w, http.StatusConflict, fmt.Sprintf("file %s already processed", fileID))
			return
		}
		in.UploadedFileID = &fileID
	}

	res, err := h.svc.ProcessFile(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *handler) listImports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	batches, err := h.svc.Imports(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, batches)
}

func (h *handler) addCash(w http.ResponseWriter, r *http.Request) {
	var in ingest.CashInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	row, err := h.svc.AddCash(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, row)
}

type confirmRequest struct {
	TxID string `json:"tx_id"`
	store.TransactionPatch
}

func (h *handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	row, err := h.svc.Confirm(r.Context(), req.TxID, req.TransactionPatch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page", store.DefaultPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	f := store.TransactionFilter{
		Month:            q.Get("month"),
		Type:             model.TransactionType(q.Get("type")),
		Macro:            q.Get("macro"),
		Status:           model.ReviewStatus(q.Get("status")),
		IncludeTransfers: q.Get("include_transfers") == "true",
		Page:             page,
		Limit:            limit,
	}
	res, err := h.svc.Transactions(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *handler) pending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Pending(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		Rows   []model.MasterRow       `json:"rows"`
		Counts analytics.PendingCounts `json:"counts"`
	}{rows, analytics.CountPending(rows)})
}

func (h *handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Rules(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rules)
}

func (h *handler) saveRule(w http.ResponseWriter, r *http.Request) {
	var rule model.Rule
	if err := decodeJSON(r, &rule); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	saved, err := h.svc.SaveRule(r.Context(), rule)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, saved)
}

type patternRequest struct {
	Pattern string                 `json:"pattern"`
	Source  *string                `json:"source"`
	Macro   string                 `json:"macro"`
	Subcat  string                 `json:"subcat"`
	Type    *model.TransactionType `json:"type"`
}

func (h *handler) ruleFromPattern(w http.ResponseWriter, r *http.Request) {
	var req patternRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	rule, err := h.svc.CreateRuleFromPattern(r.Context(), req.Pattern, req.Source, req.Macro, req.Subcat, req.Type)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rule)
}

func (h *handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.Budgets(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, budgets)
}

func (h *handler) saveBudget(w http.ResponseWriter, r *http.Request) {
	var b model.Budget
	if err := decodeJSON(r, &b); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	saved, err := h.svc.SaveBudget(r.Context(), b)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}

func (h *handler) budgetStatus(w http.ResponseWriter, r *http.Request) {
	lines, err := h.svc.BudgetStatus(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, lines)
}

func (h *handler) healthChecks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	rows, err := h.svc.Health(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	offset, err := queryFloat(r, "offset")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	s, err := h.svc.Analytics(r.Context(), r.URL.Query().Get("month"), offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s)
}

func (h *handler) comparison(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Comparison(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (h *handler) accounts(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Accounts())
}

func (h *handler) categories(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Categories())
}

// telegramWebhook always answers 200 so the Bot API does not redeliver an
// update whose reply failed.
func (h *handler) telegramWebhook(w http.ResponseWriter, r *http.Request) {
	var u bot.Update
	if err := decodeJSON(r, &u); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.bot.HandleUpdate(r.Context(), u); err != nil {
		h.log.Warn().Err(err).Int("update_id", u.UpdateID).Msg("telegram update failed")
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

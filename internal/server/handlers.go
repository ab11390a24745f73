package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wt/internal/export"
	"wt/internal/item"
	"wt/internal/ledger"
	"wt/internal/workflow"
)

const maxUploadBytes = 32 << 20

var errBadRequestBody = errors.New("malformed request body")

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.engine.Items()
	s.mu.Unlock()

	status := r.URL.Query().Get("status")
	includeArchived := r.URL.Query().Get("all") == "true"

	filtered := make([]item.Item, 0, len(items))

	for _, it := range items {
		if it.Archived && !includeArchived {
			continue
		}

		if status != "" && it.Status != status {
			continue
		}

		filtered = append(filtered, it)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"items": filtered})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	it, ok := s.engine.Find(chi.URLParam(r, "id"))
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "item not found")

		return
	}

	s.writeJSON(w, http.StatusOK, it)
}

type createRequest struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Client   string `json:"client"`
	Project  string `json:"project"`
	Billable *bool  `json:"billable"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createRequest

	decodeErr := json.NewDecoder(r.Body).Decode(&req)
	if decodeErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	billable := true
	if req.Billable != nil {
		billable = *req.Billable
	}

	s.mu.Lock()
	created, warnings, err := s.engine.Create(workflow.CreateParams{
		Title:    req.Title,
		Type:     req.Type,
		Client:   req.Client,
		Project:  req.Project,
		Billable: billable,
		Actor:    item.ActorDev,
	})
	s.mu.Unlock()

	if err != nil {
		s.writeEngineError(w, err)

		return
	}

	s.logWarnings(warnings)
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	it, err := s.engine.Start(chi.URLParam(r, "id"))
	s.mu.Unlock()

	s.writeItemOrError(w, it, err)
}

func (s *Server) handleReopen(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	it, err := s.engine.Reopen(chi.URLParam(r, "id"))
	s.mu.Unlock()

	s.writeItemOrError(w, it, err)
}

type completeRequest struct {
	Hours   float64 `json:"hours"`
	Rate    float64 `json:"rate"`
	Comment string  `json:"comment"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	fields, files, parseErr := s.commentBody(r)
	if parseErr != nil {
		s.writeError(w, http.StatusBadRequest, parseErr.Error())

		return
	}

	var req completeRequest

	unmarshalErr := json.Unmarshal(fields, &req)
	if unmarshalErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	s.mu.Lock()
	it, warnings, err := s.engine.Complete(chi.URLParam(r, "id"), workflow.CompleteParams{
		Hours:   req.Hours,
		Rate:    req.Rate,
		Comment: req.Comment,
		Files:   files,
	})
	s.mu.Unlock()

	s.logWarnings(warnings)
	s.writeItemOrError(w, it, err)
}

type respondRequest struct {
	Comment string   `json:"comment"`
	Hours   *float64 `json:"hours"`
	Rate    *float64 `json:"rate"`
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	fields, files, parseErr := s.commentBody(r)
	if parseErr != nil {
		s.writeError(w, http.StatusBadRequest, parseErr.Error())

		return
	}

	var req respondRequest

	unmarshalErr := json.Unmarshal(fields, &req)
	if unmarshalErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	s.mu.Lock()
	it, warnings, err := s.engine.RespondToChanges(chi.URLParam(r, "id"), workflow.RespondParams{
		Comment: req.Comment,
		Hours:   req.Hours,
		Rate:    req.Rate,
		Files:   files,
	})
	s.mu.Unlock()

	s.logWarnings(warnings)
	s.writeItemOrError(w, it, err)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	it, err := s.engine.Approve(chi.URLParam(r, "id"))
	s.mu.Unlock()

	s.writeItemOrError(w, it, err)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (s *Server) handleRequestChanges(w http.ResponseWriter, r *http.Request) {
	fields, files, parseErr := s.commentBody(r)
	if parseErr != nil {
		s.writeError(w, http.StatusBadRequest, parseErr.Error())

		return
	}

	var req commentRequest

	unmarshalErr := json.Unmarshal(fields, &req)
	if unmarshalErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	s.mu.Lock()
	it, warnings, err := s.engine.RequestChanges(chi.URLParam(r, "id"), req.Comment, files)
	s.mu.Unlock()

	s.logWarnings(warnings)
	s.writeItemOrError(w, it, err)
}

func (s *Server) handleClientComment(w http.ResponseWriter, r *http.Request) {
	s.handleComment(w, r, item.ActorClient)
}

func (s *Server) handleDevComment(w http.ResponseWriter, r *http.Request) {
	s.handleComment(w, r, item.ActorDev)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request, actor string) {
	fields, files, parseErr := s.commentBody(r)
	if parseErr != nil {
		s.writeError(w, http.StatusBadRequest, parseErr.Error())

		return
	}

	var req commentRequest

	unmarshalErr := json.Unmarshal(fields, &req)
	if unmarshalErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	if strings.TrimSpace(req.Comment) == "" && len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "comment or attachment required")

		return
	}

	s.mu.Lock()
	it, warnings, err := s.engine.Comment(chi.URLParam(r, "id"), actor, req.Comment, files)
	s.mu.Unlock()

	s.logWarnings(warnings)
	s.writeItemOrError(w, it, err)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	s.handleBatch(w, r, s.engine.MarkPaid)
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	s.handleBatch(w, r, s.engine.ConfirmPayment)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, op func([]string) (int, error)) {
	var req batchRequest

	decodeErr := json.NewDecoder(r.Body).Decode(&req)
	if decodeErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	s.mu.Lock()
	updated, err := op(req.IDs)
	s.mu.Unlock()

	if err != nil {
		s.writeEngineError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.engine.Delete(chi.URLParam(r, "id"))
	s.mu.Unlock()

	if err != nil {
		s.writeEngineError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type editRequest struct {
	Title    *string `json:"title"`
	Client   *string `json:"client"`
	Project  *string `json:"project"`
	Billable *bool   `json:"billable"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest

	decodeErr := json.NewDecoder(r.Body).Decode(&req)
	if decodeErr != nil {
		s.writeError(w, http.StatusBadRequest, errBadRequestBody.Error())

		return
	}

	s.mu.Lock()
	it, err := s.engine.EditMetadata(chi.URLParam(r, "id"), workflow.Metadata{
		Title:    req.Title,
		Client:   req.Client,
		Project:  req.Project,
		Billable: req.Billable,
	})
	s.mu.Unlock()

	s.writeItemOrError(w, it, err)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := s.engine.Items()
	s.mu.Unlock()

	data, err := export.CSV(items)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="items.csv"`)
	_, _ = w.Write(data)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := s.engine.Items()
	s.mu.Unlock()

	data, err := export.JSON(items)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

// handleAttachment serves a stored attachment by base name. The name is
// reduced to its base before joining, so the route cannot escape the
// attachment directory.
func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	path := filepath.Join(s.attachDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "attachment not found")

		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(data)
}

// commentBody reads either a JSON body or a multipart form. Multipart forms
// carry their JSON fields in the "payload" field and any number of uploads in
// "attachment" fields. Returns the raw JSON fields plus the decoded files.
func (s *Server) commentBody(r *http.Request) ([]byte, []ledger.File, error) {
	contentType := r.Header.Get("Content-Type")

	if !strings.HasPrefix(contentType, "multipart/form-data") {
		body, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			return nil, nil, errBadRequestBody
		}

		if len(body) == 0 {
			body = []byte("{}")
		}

		return body, nil, nil
	}

	parseErr := r.ParseMultipartForm(maxUploadBytes)
	if parseErr != nil {
		return nil, nil, errBadRequestBody
	}

	payload := r.FormValue("payload")
	if payload == "" {
		payload = "{}"
	}

	var files []ledger.File

	for _, header := range r.MultipartForm.File["attachment"] {
		f, openErr := header.Open()
		if openErr != nil {
			return nil, nil, fmt.Errorf("reading upload %q: %w", header.Filename, openErr)
		}

		data, readErr := io.ReadAll(f)

		_ = f.Close()

		if readErr != nil {
			return nil, nil, fmt.Errorf("reading upload %q: %w", header.Filename, readErr)
		}

		files = append(files, ledger.File{Name: header.Filename, Data: data})
	}

	return []byte(payload), files, nil
}

func (s *Server) writeItemOrError(w http.ResponseWriter, it item.Item, err error) {
	if err != nil {
		s.writeEngineError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, it)
}

// writeEngineError maps the engine's sentinel errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, workflow.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrTitleRequired),
		errors.Is(err, workflow.ErrCommentRequired),
		errors.Is(err, workflow.ErrHoursRequired),
		errors.Is(err, workflow.ErrNegativeRate):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrNotReady),
		errors.Is(err, workflow.ErrNotInProgress),
		errors.Is(err, workflow.ErrNotCompleted),
		errors.Is(err, workflow.ErrNoReviewRequested):
		status = http.StatusConflict
	}

	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	encodeErr := json.NewEncoder(w).Encode(v)
	if encodeErr != nil {
		s.log.Error("encoding response", zap.Error(encodeErr))
	}
}

func (s *Server) logWarnings(warnings []error) {
	for _, warning := range warnings {
		s.log.Warn("attachment", zap.Error(warning))
	}
}

package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cheatdb/internal/api"
	"cheatdb/internal/config"
	"cheatdb/internal/logging"
	"cheatdb/internal/report"
	"cheatdb/internal/resolve"
)

// maxBodyBytes bounds request bodies, import documents included.
const maxBodyBytes = 8 << 20

type apiServer struct {
	bind      string
	logger    *slog.Logger
	daemon    *Daemon
	operators operatorChecker
	handler   http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		logger:    logger,
		daemon:    d,
		operators: d.svc.Store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/check", srv.handleCheck)
	mux.HandleFunc("/api/draft", srv.requireOperator(srv.handleDraft))
	mux.HandleFunc("/api/draft/input", srv.requireOperator(srv.handleDraftInput))
	mux.HandleFunc("/api/draft/commit", srv.requireOperator(srv.handleDraftCommit))
	mux.HandleFunc("/api/identities/", srv.requireOperator(srv.handleIdentity))
	mux.HandleFunc("/api/import", srv.requireOperator(srv.handleImport))
	mux.HandleFunc("/api/export", srv.requireOperator(srv.handleExport))
	mux.HandleFunc("/api/operators", srv.requireOperator(srv.handleOperators))
	mux.HandleFunc("/api/operators/", srv.requireOperator(srv.handleOperatorItem))

	srv.handler = correlationMiddleware(authMiddleware(strings.TrimSpace(cfg.Paths.APIToken), mux))
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.log(ctx).Info("api server disabled; no bind address")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log(ctx).Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log(ctx).Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:             status.Running,
		PID:                 status.PID,
		DatabasePath:        status.DatabasePath,
		LockFilePath:        status.LockFilePath,
		DirectoryConfigured: status.DirectoryConfigured,
		Stats:               api.FromStats(status.Stats),
	})
}

func (s *apiServer) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	svc := s.daemon.svc
	res, err := svc.Engine.Check(r.Context(), svc.Classifier.Classify(query))
	switch {
	case errors.Is(err, resolve.ErrNotCheckable):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.log(r.Context()).Warn("check failed", logging.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromCheckResult(query, res))
}

func (s *apiServer) handleDraft(w http.ResponseWriter, r *http.Request, operator int64) {
	reports := s.daemon.svc.Reports
	switch r.Method {
	case http.MethodGet:
		draft, _ := reports.Draft(operator)
		s.writeJSON(w, http.StatusOK, api.DraftResponse{Draft: api.FromDraft(draft)})
	case http.MethodDelete:
		if !reports.Cancel(operator) {
			s.writeError(w, http.StatusNotFound, report.ErrNoDraft.Error())
			return
		}
		s.log(r.Context()).Info("draft cancelled")
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleDraftInput(w http.ResponseWriter, r *http.Request, operator int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.InputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	res, err := s.daemon.svc.Reports.Apply(r.Context(), operator, req.Text)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromApplyResult(res))
}

func (s *apiServer) handleDraftCommit(w http.ResponseWriter, r *http.Request, operator int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rec, err := s.daemon.svc.Reports.Commit(r.Context(), operator)
	switch {
	case errors.Is(err, report.ErrNoDraft):
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, report.ErrMissingIdentity):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CommitResponse{Identity: api.FromIdentity(rec)})
}

func (s *apiServer) handleIdentity(w http.ResponseWriter, r *http.Request, _ int64) {
	id, ok := s.pathID(w, r, "/api/identities/")
	if !ok {
		return
	}
	st := s.daemon.svc.Store
	switch r.Method {
	case http.MethodGet:
		rec, err := st.GetIdentity(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if rec == nil {
			s.writeError(w, http.StatusNotFound, "identity not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.IdentityResponse{Identity: api.FromIdentity(*rec)})
	case http.MethodDelete:
		removed, err := s.daemon.svc.DeleteIdentity(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "identity not found")
			return
		}
		s.log(r.Context()).Info("identity deleted", logging.IdentityID(id))
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleImport(w http.ResponseWriter, r *http.Request, _ int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// Read the whole document first so an oversized upload imports nothing.
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("import document exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, "read import document: "+err.Error())
		return
	}
	summary, err := s.daemon.svc.Importer.Import(r.Context(), bytes.NewReader(doc))
	if err != nil {
		s.log(r.Context()).Error("import failed", logging.Error(err), logging.Int("imported", len(summary.Imported)))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSummary(summary))
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request, _ int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cheatdb-export.txt"`)
	if _, err := s.daemon.svc.Importer.Export(r.Context(), w); err != nil {
		s.log(r.Context()).Error("export failed", logging.Error(err))
	}
}

func (s *apiServer) handleOperators(w http.ResponseWriter, r *http.Request, _ int64) {
	st := s.daemon.svc.Store
	switch r.Method {
	case http.MethodGet:
		ids, err := st.ListOperators(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.OperatorsResponse{Operators: ids})
	case http.MethodPost:
		var req api.OperatorRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.ID <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid operator id")
			return
		}
		if err := st.AddOperator(r.Context(), req.ID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.log(r.Context()).Info("operator added", logging.Int64("target_operator", req.ID))
		w.WriteHeader(http.StatusCreated)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleOperatorItem(w http.ResponseWriter, r *http.Request, operator int64) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := s.pathID(w, r, "/api/operators/")
	if !ok {
		return
	}
	if id == operator {
		s.writeError(w, http.StatusConflict, "operators cannot remove themselves")
		return
	}
	removed, err := s.daemon.svc.Store.RemoveOperator(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "operator not found")
		return
	}
	s.log(r.Context()).Info("operator removed", logging.Int64("target_operator", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log(context.Background()).Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log(ctx context.Context) *slog.Logger {
	if s.logger != nil {
		return logging.WithContext(ctx, s.logger.With(logging.String(logging.FieldComponent, "api-server")))
	}
	return logging.NewNop()
}

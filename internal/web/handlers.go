package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/dataforge/internal/core"
	"github.com/JonMunkholm/dataforge/internal/logging"
	"github.com/JonMunkholm/dataforge/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// maxMemory is how much of a multipart upload is kept in memory; the rest
// spills to temporary files.
const maxMemory = 32 << 20

// fileResponse is the JSON form of a file's state.
type fileResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Format     string    `json:"format"`
	SizeKB     float64   `json:"sizeKB"`
	Rows       int       `json:"rows"`
	Columns    []string  `json:"columns"`
	Steps      []string  `json:"steps"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func newFileResponse(f core.FileState) fileResponse {
	steps := f.Steps
	if steps == nil {
		steps = []string{}
	}
	return fileResponse{
		ID:         f.ID,
		Name:       f.Name,
		Format:     f.Format.String(),
		SizeKB:     f.SizeKB(),
		Rows:       f.Current.NumRows(),
		Columns:    f.Current.Names(),
		Steps:      steps,
		UploadedAt: f.UploadedAt,
	}
}

// uploadResponse is one file's outcome in an upload.
type uploadResponse struct {
	Name  string         `json:"name"`
	File  *fileResponse  `json:"file,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// handleDashboard renders the session's file list and the upload form.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.Files(sessionID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.renderPage(w, r, http.StatusOK, templates.Dashboard(s.dashboardView(files, nil, r.URL.Query().Get("notice"))))
}

func (s *Server) dashboardView(files []core.FileState, results []templates.UploadResult, notice string) templates.DashboardView {
	return templates.DashboardView{
		Files:         files,
		Results:       results,
		Notice:        notice,
		MaxFiles:      s.cfg.Upload.MaxFiles,
		MaxFileSizeMB: s.cfg.Upload.MaxFileSize >> 20,
	}
}

// handleListFiles returns the session's files as JSON.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.Files(sessionID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	out := make([]fileResponse, len(files))
	for i, f := range files {
		out[i] = newFileResponse(f)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"files": out})
}

// handleUpload ingests every file of a multipart upload. Each file
// succeeds or fails on its own; the response lists all outcomes.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sources, cleanup, err := s.parseUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer cleanup()

	results, err := s.service.UploadFiles(r.Context(), sessionID(r), sources)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	// The request succeeds when any file did; otherwise the first failure
	// decides the status.
	status := http.StatusOK
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			if failed == 0 {
				status = statusFor(res.Err)
			}
			failed++
			logging.FromContext(r.Context()).Debug("upload file rejected", "file", res.Name, "code", core.MapError(res.Err).Code)
		}
	}
	if failed < len(results) {
		status = http.StatusOK
	}

	if wantsJSON(r) {
		out := make([]uploadResponse, len(results))
		for i, res := range results {
			out[i] = uploadResponse{Name: res.Name}
			if res.Err != nil {
				msg := core.MapError(res.Err)
				out[i].Error = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
				continue
			}
			f := newFileResponse(res.Value)
			out[i].File = &f
		}
		writeJSON(w, r, status, map[string]any{"results": out})
		return
	}

	view := make([]templates.UploadResult, len(results))
	for i, res := range results {
		view[i] = templates.UploadResult{Name: res.Name}
		if res.Err != nil {
			msg := core.MapError(res.Err)
			view[i].Error = &msg
			continue
		}
		f := res.Value
		view[i].File = &f
	}
	files, err := s.service.Files(sessionID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.renderPage(w, r, status, templates.Dashboard(s.dashboardView(files, view, "")))
}

// parseUpload reads the multipart form and returns one Source per file.
// cleanup removes any temporary files the form spilled to disk.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) ([]core.Source, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize())
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig), strings.Contains(err.Error(), "request body too large"):
			return nil, nil, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrFileTooLarge, s.cfg.Upload.MaxRequestSize())
		case errors.Is(err, http.ErrNotMultipart):
			return nil, nil, core.ErrNoFile
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	sources := make([]core.Source, len(headers))
	for i, fh := range headers {
		sources[i] = multipartSource(fh)
	}
	return sources, func() { r.MultipartForm.RemoveAll() }, nil
}

func multipartSource(fh *multipart.FileHeader) core.Source {
	return core.Source{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// handleFile renders a file's page, or its preview and summary as JSON.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	sid, fid := sessionID(r), chi.URLParam(r, "fileID")
	preview, err := s.service.Preview(sid, fid, parseIntParam(r, "rows", core.DefaultPreviewRows))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"file":    newFileResponse(preview.File),
			"rows":    preview.Rows,
			"summary": preview.Summary,
		})
		return
	}

	choices := chartChoices(r)
	view := templates.FileView{
		Preview: preview,
		Choices: choices,
		Notice:  r.URL.Query().Get("notice"),
		Warning: r.URL.Query().Get("warning"),
	}
	_, specs, err := s.service.Charts(sid, fid, choices)
	switch {
	case err == nil:
		view.Specs = specs
	case core.IsWarning(err):
		view.ChartWarning = core.MapError(err).Message
	default:
		// A bad axis pick should not take the whole page down.
		view.ChartWarning = core.FormatUserError(err)
	}
	s.renderPage(w, r, http.StatusOK, templates.FileDetail(view))
}

// handleClean applies a cleaning operation.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	op, err := core.ParseCleanOp(chi.URLParam(r, "op"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	fid := chi.URLParam(r, "fileID")
	f, report, err := s.service.Clean(sessionID(r), fid, op)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logging.WithFields(r.Context(), "file_id", fid, "op", string(op)).
		Info("file cleaned", "rows", f.Current.NumRows(), "empty_columns", len(report.EmptyColumns))

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"file":    newFileResponse(f),
			"report":  report,
			"warning": report.Warning(),
		})
		return
	}
	redirectToFile(w, r, fid, report.Summary(), report.Warning())
}

// handleShape selects and renames columns. It accepts a JSON
// core.ColumnSelection or the file page's form.
func (s *Server) handleShape(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	fid := chi.URLParam(r, "fileID")
	f, err := s.service.Shape(sessionID(r), fid, sel)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logging.WithFields(r.Context(), "file_id", fid).Info("file shaped", "columns", f.Current.NumColumns())

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, map[string]any{"file": newFileResponse(f)})
		return
	}
	redirectToFile(w, r, fid, fmt.Sprintf("Kept %d columns", f.Current.NumColumns()), "")
}

func parseSelection(w http.ResponseWriter, r *http.Request) (core.ColumnSelection, error) {
	var sel core.ColumnSelection
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			return sel, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
		}
		return sel, nil
	}

	if err := r.ParseForm(); err != nil {
		return sel, fmt.Errorf("%w: %v", core.ErrBadRequest, err)
	}
	sel.Columns = r.PostForm["columns"]
	for key, vals := range r.PostForm {
		old, ok := strings.CutPrefix(key, templates.RenameField(""))
		if !ok || len(vals) == 0 {
			continue
		}
		if sel.Rename == nil {
			sel.Rename = make(map[string]string)
		}
		sel.Rename[old] = vals[0]
	}
	return sel, nil
}

// handleReset restores a file to its uploaded state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	fid := chi.URLParam(r, "fileID")
	f, err := s.service.Reset(sessionID(r), fid)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, map[string]any{"file": newFileResponse(f)})
		return
	}
	redirectToFile(w, r, fid, "Restored the uploaded data", "")
}

// handleDelete removes a file from the session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteFile(sessionID(r), chi.URLParam(r, "fileID")); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/?notice="+url.QueryEscape("File removed"), http.StatusSeeOther)
}

// handleChartSpecs returns the charts the file supports. No numeric data
// yields an empty list with a warning, not an error.
func (s *Server) handleChartSpecs(w http.ResponseWriter, r *http.Request) {
	_, specs, err := s.service.Charts(sessionID(r), chi.URLParam(r, "fileID"), chartChoices(r))
	warning := ""
	if err != nil {
		if !core.IsWarning(err) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		warning = core.MapError(err).Message
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"charts": specs, "warning": warning})
}

// handleChartImage renders one chart as PNG.
func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseChartKind(chi.URLParam(r, "kind"))
	if err != nil {
		err = fmt.Errorf("%w: %v", core.ErrChartUnavailable, err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	f, specs, err := s.service.Charts(sessionID(r), chi.URLParam(r, "fileID"), chartChoices(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	spec, ok := core.FindChart(specs, kind)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrChartUnavailable, kind)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, f.Current, spec); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// handleExport downloads the file's current data as CSV or Excel.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	target, err := core.ParseTarget(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	art, err := s.service.Export(sessionID(r), chi.URLParam(r, "fileID"), target)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	http.ServeContent(w, r, art.Filename, time.Time{}, art.Body)
}

// handleHealth reports liveness and ingest capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"ingest": s.service.IngestStatus(),
	})
}

// chartChoices reads axis picks from the query string.
func chartChoices(r *http.Request) core.ChartChoices {
	q := r.URL.Query()
	return core.ChartChoices{
		X:        q.Get("x"),
		Y:        q.Get("y"),
		Category: q.Get("category"),
		Value:    q.Get("value"),
	}
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// redirectToFile sends the browser back to the file page with banners.
func redirectToFile(w http.ResponseWriter, r *http.Request, fileID, notice, warning string) {
	q := url.Values{}
	if notice != "" {
		q.Set("notice", notice)
	}
	if warning != "" {
		q.Set("warning", warning)
	}
	target := templates.FileURL(fileID)
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// renderPage writes a templ component as a full HTML response.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

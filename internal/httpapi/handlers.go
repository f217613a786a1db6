package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/Epistemic-Technology/studysage/internal/export"
	"github.com/Epistemic-Technology/studysage/internal/operations"
	"github.com/Epistemic-Technology/studysage/internal/storage"
	"github.com/Epistemic-Technology/studysage/models"
)

// APIKeyHeader carries a per-request Hugging Face token.
const APIKeyHeader = "X-HF-API-Key"

type ExtractResponse struct {
	Source     string `json:"source"`
	Characters int    `json:"characters"`
	Text       string `json:"text"`
}

type SummarizeRequest struct {
	Text      string `json:"text"`
	Mode      string `json:"mode,omitempty"`
	MinLength int    `json:"min_length,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

type QuizRequest struct {
	Summary      string `json:"summary"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

type QuizResponse struct {
	Questions []models.Question `json:"questions"`
	Count     int               `json:"count"`
}

type ProcessResponse struct {
	Session       *models.StudySession `json:"session"`
	ResourcePaths []string             `json:"resource_paths,omitempty"`
}

// Extract handles POST /api/extract.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentFromRequest(w, r)
	if err != nil {
		h.badDocument(w, err)
		return
	}
	defer doc.cleanup()

	text, err := h.pipeline.ExtractTextFromSource(r.Context(), doc.source, h.language(r), formBool(r, "force_ocr"))
	if err != nil {
		h.fail(w, "extraction failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{
		Source:     doc.label(),
		Characters: utf8.RuneCountInString(text),
		Text:       text,
	})
}

// Summarize handles POST /api/summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required", "")
		return
	}
	mode, err := h.modeConfig(r, req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mode", err.Error())
		return
	}
	minLength, maxLength := h.lengths(req.MinLength, req.MaxLength)

	res, err := h.pipeline.SummarizeTextDetailed(r.Context(), req.Text, minLength, maxLength, mode)
	if err != nil {
		h.fail(w, "summarization failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Quiz handles POST /api/quiz.
func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.NumQuestions < 0 {
		writeError(w, http.StatusBadRequest, "num_questions must not be negative", "")
		return
	}
	n := req.NumQuestions
	if n == 0 {
		n = h.cfg.Quiz.NumQuestions
	}

	questions := h.pipeline.GenerateQuestions(req.Summary, n)
	writeJSON(w, http.StatusOK, QuizResponse{Questions: questions, Count: len(questions)})
}

// Process handles POST /api/process: extract, summarize, quiz and store.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentFromRequest(w, r)
	if err != nil {
		h.badDocument(w, err)
		return
	}
	defer doc.cleanup()

	mode, err := h.modeConfig(r, r.FormValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mode", err.Error())
		return
	}
	n := h.cfg.Quiz.NumQuestions
	if v := r.FormValue("num_questions"); v != "" {
		n, err = strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid num_questions", v)
			return
		}
	}
	minLength, maxLength := h.lengths(formInt(r, "min_length"), formInt(r, "max_length"))

	session, err := h.pipeline.Process(r.Context(), operations.ProcessRequest{
		Source:       doc.source,
		DisplayPath:  doc.name,
		Language:     h.language(r),
		ForceOCR:     formBool(r, "force_ocr"),
		Mode:         mode,
		MinLength:    minLength,
		MaxLength:    maxLength,
		NumQuestions: n,
	})
	if err != nil {
		h.fail(w, "processing failed", err)
		return
	}

	resp := ProcessResponse{Session: session}
	if session.ID != "" {
		resp.ResourcePaths = storage.CalculateResourcePaths(session)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		h.fail(w, "failed to list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/sessions/{sessionId}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	session, err := h.store.GetSession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.fail(w, "failed to load session", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /api/sessions/{sessionId}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	if err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		h.fail(w, "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSession handles GET /api/sessions/{sessionId}/export/{kind} and
// streams the PDF.
func (h *Handler) ExportSession(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	kind, err := export.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid export kind", err.Error())
		return
	}
	session, err := h.store.GetSession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.fail(w, "failed to load session", err)
		return
	}
	if kind == export.KindQuiz && len(session.Questions) == 0 {
		writeError(w, http.StatusNotFound, "session has no quiz", "")
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, kind, session); err != nil {
		h.fail(w, "export failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.pdf"`, kind, session.ID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (h *Handler) badDocument(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid document", err.Error())
}

func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "session history is disabled", "")
		return false
	}
	return true
}

// requestDocument is the document a request points at.
type requestDocument struct {
	source models.SourceInfo
	// name is the uploaded file's original name
	name    string
	cleanup func()
}

func (d requestDocument) label() string {
	if d.name != "" {
		return d.name
	}
	return d.source.Label()
}

// documentFromRequest reads a multipart upload ("file") or a "url" or
// "zotero_id" form field. Uploads are spooled to a temp file that cleanup
// removes.
func (h *Handler) documentFromRequest(w http.ResponseWriter, r *http.Request) (requestDocument, error) {
	doc := requestDocument{cleanup: func() {}}
	if h.cfg.Server.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return doc, err
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		path, err := spool(file, header.Filename)
		if err != nil {
			return doc, err
		}
		h.log.Debug("Spooled upload %s to %s", header.Filename, path)
		doc.source = models.SourceInfo{Path: path}
		doc.name = filepath.Base(header.Filename)
		doc.cleanup = func() { os.Remove(path) }
		return doc, nil
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return doc, err
	}

	doc.source = models.SourceInfo{URL: r.FormValue("url"), ZoteroID: r.FormValue("zotero_id")}
	if (doc.source.URL == "") == (doc.source.ZoteroID == "") {
		return doc, errors.New("provide exactly one of file, url or zotero_id")
	}
	return doc, nil
}

func spool(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.CreateTemp("", "studysage-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// modeConfig applies a per-request mode and API key over the configured
// defaults.
func (h *Handler) modeConfig(r *http.Request, mode string) (models.ModeConfig, error) {
	mc := h.cfg.ModeConfig()
	if mode != "" {
		m := models.Mode(strings.ToLower(mode))
		if m != models.ModeOnline && m != models.ModeOffline {
			return mc, fmt.Errorf("unknown mode %q (expected 'online' or 'offline')", mode)
		}
		mc.Mode = m
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		mc.APIKey = key
	}
	return mc, nil
}

func (h *Handler) lengths(minLength, maxLength int) (int, int) {
	if minLength <= 0 {
		minLength = h.cfg.Summary.MinLength
	}
	if maxLength <= 0 {
		maxLength = h.cfg.Summary.MaxLength
	}
	return minLength, maxLength
}

func (h *Handler) language(r *http.Request) string {
	if lang := r.FormValue("lang"); lang != "" {
		return lang
	}
	return h.cfg.OCR.Language
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.FormValue(key))
	return v
}

func formInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.FormValue(key))
	return v
}

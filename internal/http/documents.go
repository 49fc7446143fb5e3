package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BIGM16/Ecole-desExcellents/internal/gateway"
	"github.com/BIGM16/Ecole-desExcellents/internal/model"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

type documentRequest struct {
	Title    *string `json:"titre"`
	Category *string `json:"categorie"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := s.gateways.Documents.List(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	out := make([]documentView, 0, len(documents))
	for _, document := range documents {
		out = append(out, mapDocument(document))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	document, err := s.gateways.Documents.Create(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"), gateway.DocumentInput{
		Title:    req.Title,
		Category: req.Category,
	})
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapDocument(document))
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.gateways.Documents.ListFiles(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	out := make([]fileView, 0, len(files))
	for _, file := range files {
		out = append(out, s.mapFile(r, file))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	upload := gateway.FileUpload{Name: r.FormValue("nom")}
	file, header, err := r.FormFile("fichier")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	default:
		defer file.Close()
		upload.Filename = header.Filename
		upload.ContentType = header.Header.Get("Content-Type")
		upload.Content = file
	}

	created, err := s.gateways.Documents.AddFile(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"), upload)
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.mapFile(r, created))
}

// inlineTypes are the uploaded content types a browser may render in
// place. Anything else is served as a download.
var inlineTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
}

func contentDisposition(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && inlineTypes[strings.ToLower(mediaType)] {
		return "inline"
	}
	return "attachment"
}

// handleViewFile streams a file. The uploader picks the content type, so
// the response is sandboxed and only allowlisted types render inline.
func (s *Server) handleViewFile(w http.ResponseWriter, r *http.Request) {
	file, content, err := s.gateways.Documents.OpenFile(r.Context(), principalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeObjectError(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(file.ContentType))
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		s.logger.WarnContext(r.Context(), "file stream interrupted", "file", file.ID, "error", err)
	}
}

func (s *Server) mapFile(r *http.Request, f model.DocumentFile) fileView {
	return fileView{
		ID:          f.ID,
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		AddedAt:     f.AddedAt,
		ViewURL:     fmt.Sprintf("%s/api/documents/files/%s/view/", s.baseURL(r), f.ID),
	}
}

// baseURL prefers the configured public URL over the request host.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

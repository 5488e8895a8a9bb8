package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/gartstein/professionals/internal/professional/export"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/gartstein/professionals/internal/professional/views"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// ProfessionalHandler serves the professionals REST API.
type ProfessionalHandler struct {
	service        ProfessionalController
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewProfessionalHandler constructs a ProfessionalHandler. maxUploadBytes caps
// the multipart body of resume uploads.
func NewProfessionalHandler(service ProfessionalController, maxUploadBytes int64, logger *zap.Logger) *ProfessionalHandler {
	return &ProfessionalHandler{
		service:        service,
		logger:         logger.Named("http_handler"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register adds the API routes to mux.
func (h *ProfessionalHandler) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/professionals", h.Upsert},
		{http.MethodGet, "/professionals", h.List},
		{http.MethodPost, "/professionals/bulk", h.BulkUpsert},
		{http.MethodGet, "/professionals/export", h.Export},
		{http.MethodPost, "/professionals/{id}/resume", h.UploadResume},
		{http.MethodDelete, "/professionals/{id}", h.Delete},
	}
	for _, route := range routes {
		if err := mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return fmt.Errorf("failed to register %s %s: %w", route.method, route.pattern, err)
		}
	}
	return nil
}

// Upsert creates or updates a single professional: 201 when created, 200 when
// an existing profile was updated.
func (h *ProfessionalHandler) Upsert(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	v, raw, err := decodeJSON(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	in, err := toInput(v, raw)
	if err != nil {
		h.writeError(w, err)
		return
	}

	professional, outcome, err := h.service.Upsert(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if outcome == models.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, views.Project(professional, views.Options{}))
}

// BulkUpsert always answers 207 once the body is a list.
func (h *ProfessionalHandler) BulkUpsert(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	v, raw, err := decodeJSON(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	records, err := toBulkRecords(v, raw)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusMultiStatus, h.service.BulkUpsert(r.Context(), records))
}

func (h *ProfessionalHandler) List(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	profiles, err := h.service.List(r.Context(), listOptions(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Export streams the filtered listing as an XLSX workbook.
func (h *ProfessionalHandler) Export(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	opts := listOptions(r)
	profiles, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := export.ProfilesXLSX(profiles, opts.IncludeResume)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// UploadResume stores the multipart "file" part as the professional's resume.
func (h *ProfessionalHandler) UploadResume(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	id, err := parseID(pathParams)
	if err != nil {
		h.writeError(w, err)
		return
	}

	file, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	attachment, err := h.service.AttachResume(r.Context(), id, file)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, views.ProjectResume(attachment))
}

// readUpload returns nil without error when no file part was sent; the
// service decides how a missing file is reported.
func (h *ProfessionalHandler) readUpload(w http.ResponseWriter, r *http.Request) (*models.ResumeFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", e.ErrInvalidInput, h.maxUploadBytes)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: malformed multipart body: %v", e.ErrInvalidInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read upload: %v", e.ErrInvalidInput, err)
	}
	return &models.ResumeFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Delete removes a professional and its resume.
func (h *ProfessionalHandler) Delete(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	id, err := parseID(pathParams)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.service.DeleteProfessional(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

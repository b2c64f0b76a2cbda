package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"matchreport/internal/dataset"
	apierrors "matchreport/internal/errors"
	"matchreport/internal/middleware"
	"matchreport/internal/report"
	"matchreport/internal/services"
	"matchreport/internal/validation"
)

// multipartMemory is the part of an upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// Response headers set on generated reports
const (
	HeaderReportID           = "X-Report-ID"
	HeaderDatasetFingerprint = "X-Dataset-Fingerprint"
	HeaderReportRows         = "X-Report-Rows"
	HeaderReportWarnings     = "X-Report-Warnings"
	HeaderNarrativeFallback  = "X-Narrative-Fallback"
)

// filtersForm is the JSON "filters" form field.
type filtersForm struct {
	DateFrom string   `json:"date_from" validate:"omitempty,isodate"`
	DateTo   string   `json:"date_to" validate:"omitempty,isodate"`
	Seasons  []string `json:"seasons" validate:"omitempty,max=50,dive,required,max=20"`
	Team     string   `json:"team" validate:"omitempty,max=100"`
	Venue    string   `json:"venue" validate:"omitempty,max=200"`
}

type reportForm struct {
	Title       string      `json:"title" validate:"omitempty,max=200"`
	ProxyMetric string      `json:"proxy_metric" validate:"omitempty,max=100"`
	Filename    string      `json:"filename" validate:"omitempty,max=100,filename"`
	Filters     filtersForm `json:"filters"`
}

// ReportHandler handles report generation over multipart uploads
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler with RFC 7807 error handling
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    middleware.NewValidator(logger),
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))

	r.Post("/", h.Generate)
	r.Post("/preview", h.Preview)
	r.Post("/export", h.Export)
	return r
}

// Generate handles POST /api/v1/reports and streams the PDF back
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, closeFile, err := h.parseRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer closeFile()

	result, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	doc := result.Document
	a := result.Analysis
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.Header().Set(HeaderReportID, a.ID)
	w.Header().Set(HeaderDatasetFingerprint, a.Fingerprint)
	w.Header().Set(HeaderReportRows, strconv.Itoa(a.Rows))
	if len(a.Warnings) > 0 {
		w.Header().Set(HeaderReportWarnings, strings.Join(a.WarningMessages(), "; "))
	}
	if result.NarrativeFallback {
		w.Header().Set(HeaderNarrativeFallback, "true")
	}
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(doc.Bytes); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write report response",
			slog.String("report_id", a.ID),
			slog.String("error", err.Error()))
	}
}

// Preview handles POST /api/v1/reports/preview
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, closeFile, err := h.parseRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer closeFile()

	result, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set(HeaderReportID, result.ID)
	w.Header().Set(HeaderDatasetFingerprint, result.Fingerprint)
	render.JSON(w, r, result)
}

// Export handles POST /api/v1/reports/export and returns the filtered rows as CSV
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, closeFile, err := h.parseRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer closeFile()

	var buf bytes.Buffer
	n, err := h.service.ExportFiltered(r.Context(), req, &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("odi_matches_filtered.csv"))
	w.Header().Set(HeaderReportRows, strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// parseRequest reads the multipart upload. The returned func closes the
// uploaded file and removes any temporary parts.
func (h *ReportHandler) parseRequest(r *http.Request) (services.GenerateRequest, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.GenerateRequest{}, noop, err
		}
		return services.GenerateRequest{}, noop, apierrors.InvalidRequestWithError(err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		cleanup()
		if errors.Is(err, http.ErrMissingFile) {
			return services.GenerateRequest{}, noop, apierrors.ErrMissingFile
		}
		return services.GenerateRequest{}, noop, apierrors.InvalidRequestWithError(err)
	}
	closeAll := func() {
		file.Close()
		cleanup()
	}

	req, err := h.buildRequest(r, header)
	if err == nil {
		err = sniffUpload(file, req.Format)
	}
	if err != nil {
		closeAll()
		return services.GenerateRequest{}, noop, err
	}
	req.Input = file

	h.logger.DebugContext(r.Context(), "report request parsed",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("format", string(req.Format)))
	return req, closeAll, nil
}

func (h *ReportHandler) buildRequest(r *http.Request, header *multipart.FileHeader) (services.GenerateRequest, error) {
	format, err := uploadFormat(r.FormValue("format"), header.Filename)
	if err != nil {
		return services.GenerateRequest{}, err
	}

	form := reportForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		ProxyMetric: strings.TrimSpace(r.FormValue("proxy_metric")),
		Filename:    strings.TrimSpace(r.FormValue("filename")),
	}
	if raw := strings.TrimSpace(r.FormValue("filters")); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&form.Filters); err != nil {
			return services.GenerateRequest{}, apierrors.ErrValidation("filters", fmt.Sprintf("filters must be a JSON object: %v", err))
		}
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		return services.GenerateRequest{}, err
	}

	filters, err := form.Filters.toFilters()
	if err != nil {
		return services.GenerateRequest{}, err
	}

	req := services.GenerateRequest{
		Format:         format,
		Filters:        filters,
		Title:          form.Title,
		ProxyMetric:    form.ProxyMetric,
		FilenamePrefix: strings.TrimSuffix(form.Filename, ".pdf"),
	}
	if skip, err := strconv.ParseBool(r.FormValue("narrative")); err == nil && !skip {
		req.SkipNarrative = true
	}
	return req, nil
}

func (f filtersForm) toFilters() (report.Filters, error) {
	out := report.Filters{
		Seasons: f.Seasons,
		Team:    strings.TrimSpace(f.Team),
		Venue:   strings.TrimSpace(f.Venue),
	}
	if f.DateFrom != "" {
		t, _ := time.Parse(dataset.DateLayout, f.DateFrom)
		out.DateFrom = &t
	}
	if f.DateTo != "" {
		t, _ := time.Parse(dataset.DateLayout, f.DateTo)
		out.DateTo = &t
	}
	if out.DateFrom != nil && out.DateTo != nil && out.DateFrom.After(*out.DateTo) {
		return report.Filters{}, apierrors.ErrValidation("filters.date_from", "date_from must not be after date_to")
	}
	return out, nil
}

// uploadFormat takes the explicit format field first and the file extension
// otherwise.
func uploadFormat(explicit, filename string) (dataset.Format, error) {
	switch dataset.Format(strings.ToLower(explicit)) {
	case dataset.FormatCSV:
		return dataset.FormatCSV, nil
	case dataset.FormatXLSX:
		return dataset.FormatXLSX, nil
	case "":
	default:
		return "", apierrors.ErrUnsupportedFormat
	}

	format, err := dataset.DetectFormat(filename)
	if err != nil {
		return "", apierrors.ErrUnsupportedFormat
	}
	return format, nil
}

// sniffUpload checks the leading bytes of the upload against format and
// rewinds it.
func sniffUpload(file multipart.File, format dataset.Format) error {
	head := make([]byte, validation.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return apierrors.InvalidRequestWithError(err)
	}
	if n == 0 {
		return apierrors.ErrValidation("file", "file is empty")
	}
	if err := validation.CheckContent(head[:n], format); err != nil {
		return apierrors.ErrValidation("file", err.Error())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

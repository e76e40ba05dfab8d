// handlers_convert.go - Conversion endpoint handlers
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/snackpdf/converter/internal/converter"
	"github.com/snackpdf/converter/internal/history"
	"github.com/snackpdf/converter/internal/jobs"
	"github.com/snackpdf/converter/internal/models"
	"github.com/snackpdf/converter/internal/resolver"
	"github.com/snackpdf/converter/internal/storage"
)

const (
	mimePDF = "application/pdf"

	// FieldHTMLContent carries inline markup on the HTML route.
	FieldHTMLContent = "html_content"
	inlineHTMLName   = "content.html"

	HeaderJobID  = "X-Job-ID"
	HeaderFileID = "X-File-ID"
)

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	converter Converter
	store     storage.Store
	jobs      *jobs.Manager
	history   history.Recorder
	limitMB   func(format string) int
	logger    *slog.Logger
	now       func() time.Time
}

// NewConvertHandler creates a new conversion handler. history may be nil.
func NewConvertHandler(conv Converter, store storage.Store, jobMgr *jobs.Manager, rec history.Recorder, limitMB func(format string) int, logger *slog.Logger) ConvertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertHandlerImpl{
		converter: conv,
		store:     store,
		jobs:      jobMgr,
		history:   rec,
		limitMB:   limitMB,
		logger:    logger.With("component", "convert"),
		now:       time.Now,
	}
}

// HandleConvert returns the handler for one conversion route
func (h *ConvertHandlerImpl) HandleConvert(route resolver.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.convert(c, route)
	}
}

func (h *ConvertHandlerImpl) convert(c echo.Context, route resolver.Route) error {
	doc, err := h.readUpload(c, route)
	if err != nil {
		return err
	}

	opts := converter.ParseOptions(
		c.FormValue(models.FieldPageSize),
		c.FormValue(models.FieldOrientation),
		c.FormValue(models.FieldQuality),
	)

	job := h.jobs.Start(route.Endpoint, doc.Name, doc.Size())
	started := h.now()
	entry := history.Entry{
		ID:         job.ID,
		Endpoint:   route.Endpoint,
		SourceName: doc.Name,
		InputSize:  doc.Size(),
		CreatedAt:  started,
	}

	var pdf bytes.Buffer
	if err := h.converter.ConvertToPDF(doc, opts, &pdf); err != nil {
		apiErr := conversionError(err)
		h.jobs.Fail(job.ID, apiErr.Message)
		h.record(c.Request().Context(), entry, started, apiErr.Message)
		h.logger.Warn("conversion failed", "endpoint", route.Endpoint, "file", doc.Name, "error", err)
		return apiErr
	}

	outputName := outputFilename(route.Format(), started)
	info, err := h.store.Save(outputName, storage.Origin{SourceName: doc.Name, Endpoint: route.Endpoint}, bytes.NewReader(pdf.Bytes()))
	if err != nil {
		h.jobs.Fail(job.ID, "failed to store converted file")
		h.record(c.Request().Context(), entry, started, err.Error())
		return NewInternalError("failed to store converted file", err)
	}

	h.jobs.Complete(job.ID, info.ID, info.Size)
	entry.OutputName = outputName
	entry.OutputSize = info.Size
	h.record(c.Request().Context(), entry, started, "")
	h.logger.Info("conversion finished",
		"endpoint", route.Endpoint,
		"file", doc.Name,
		"output", outputName,
		"bytes", info.Size,
		"duration", h.now().Sub(started))

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, attachment(outputName))
	header.Set(HeaderJobID, job.ID)
	header.Set(HeaderFileID, info.ID)
	return c.Blob(http.StatusOK, mimePDF, pdf.Bytes())
}

// readUpload validates the multipart upload and loads it into memory.
func (h *ConvertHandlerImpl) readUpload(c echo.Context, route resolver.Route) (*converter.Document, error) {
	limitMB := h.limitMB(route.Format())
	limit := int64(limitMB) << 20
	tooLarge := NewValidationError(fmt.Sprintf("File too large. Maximum size is %dMB", limitMB))

	fh, err := c.FormFile(models.FieldFile)
	if err != nil || fh.Filename == "" {
		if route.Format() == "html" {
			content := c.FormValue(FieldHTMLContent)
			if content == "" {
				return nil, NewBadRequestError("No HTML file or content provided", err)
			}
			if int64(len(content)) > limit {
				return nil, tooLarge
			}
			return converter.NewDocument(inlineHTMLName, []byte(content)), nil
		}
		return nil, NewBadRequestError("No file selected", err)
	}

	if !route.Allows(fh.Filename) {
		allowed := strings.ReplaceAll(route.Accept(), ",", ", ")
		return nil, NewValidationError("Unsupported file type. Allowed: " + allowed)
	}
	if fh.Size > limit {
		return nil, tooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, NewInternalError("failed to read uploaded file", err)
	}
	if int64(len(content)) > limit {
		return nil, tooLarge
	}

	return converter.NewDocument(fh.Filename, content), nil
}

func (h *ConvertHandlerImpl) record(ctx context.Context, e history.Entry, started time.Time, errMsg string) {
	if h.history == nil {
		return
	}
	e.DurationMS = h.now().Sub(started).Milliseconds()
	e.Outcome = history.OutcomeSuccess
	if errMsg != "" {
		e.Outcome = history.OutcomeError
		e.Error = errMsg
	}
	// history is best effort
	if err := h.history.Record(context.WithoutCancel(ctx), e); err != nil {
		h.logger.Warn("recording history failed", "job", e.ID, "error", err)
	}
}

// conversionError maps converter failures to API errors.
func conversionError(err error) *APIError {
	if errors.Is(err, converter.ErrEmptyHTML) {
		return NewValidationError(converter.ErrEmptyHTML.Error())
	}
	return NewConversionError(err)
}

// outputFilename builds converted_<format>_<timestamp>_<id8>.pdf.
func outputFilename(format string, at time.Time) string {
	return fmt.Sprintf("converted_%s_%s_%s.pdf", format, at.Format("20060102_150405"), uuid.New().String()[:8])
}

// attachment renders a Content-Disposition value. Names are generated server side.
func attachment(name string) string {
	return `attachment; filename="` + strings.ReplaceAll(name, `"`, "") + `"`
}

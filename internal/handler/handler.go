package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/geobiz/internal/metrics"
	"github.com/UnknownOlympus/geobiz/internal/models"
	"github.com/UnknownOlympus/geobiz/internal/repository"
	"github.com/UnknownOlympus/geobiz/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Messages shown to the user.
const (
	MsgGPSUnavailable = "Gagal mengambil lokasi. Pastikan izin GPS aktif di browser."
	MsgIncomplete     = "Lengkapi nama usaha dan ambil koordinat terlebih dahulu."
	MsgSaved          = "Data '%s' telah tersimpan."
	MsgDeleted        = "Semua data telah dihapus."
	MsgNoRecords      = "Belum ada data."
	MsgStaleForm      = "Formulir sudah kedaluwarsa, silakan isi kembali."
	MsgStoreFailed    = "Penyimpanan data gagal, silakan coba lagi."
)

const (
	sessionName  = "geobiz"
	csvFilename  = "data_usaha.csv"
	xlsxFilename = "data_usaha.xlsx"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

//go:embed templates/*.html
var templatesFS embed.FS

// IntakeService is the form flow the handler drives.
type IntakeService interface {
	Locate(ctx context.Context, coords models.Coordinates) models.Address
	Save(ctx context.Context, record models.Record) error
	Preview(ctx context.Context) ([]models.Record, error)
	Purge(ctx context.Context) error
	Export(ctx context.Context) ([]byte, error)
	ExportWorkbook(ctx context.Context) ([]byte, error)
}

// Handler serves the intake form.
type Handler struct {
	service IntakeService
	log     *slog.Logger
}

func NewHandler(svc IntakeService, log *slog.Logger) *Handler {
	return &Handler{service: svc, log: log}
}

// NewRouter wires the routes, the cookie session store and the access log.
func NewRouter(h *Handler, sessionSecret []byte, m *metrics.Metrics, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log, m))
	router.Use(sessions.Sessions(sessionName, cookie.NewStore(sessionSecret)))

	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.GET("/", h.Form)
	router.POST("/locate", h.Locate)
	router.POST("/save", h.Save)
	router.GET("/records", h.Records)
	router.POST("/records/delete", h.Purge)
	router.GET("/records/download", h.Download)
	router.GET("/records/download.xlsx", h.DownloadWorkbook)

	return router
}

type locateRequest struct {
	Latitude  *float64 `json:"latitude"  binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type locateResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Street    string  `json:"street"`
	District  string  `json:"district"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Form renders the page with the current draft, the stored records and pending flashes.
func (h *Handler) Form(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	form := loadForm(session)

	warnings := flashes(session, flashWarning)
	records, err := h.service.Preview(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to load records for preview", "error", err)
		warnings = append(warnings, MsgStoreFailed)
	}

	data := gin.H{
		"Form":         form,
		"Records":      records,
		"Header":       repository.Header,
		"Success":      flashes(session, flashSuccess),
		"Warning":      warnings,
		"NoRecords":    MsgNoRecords,
		"GPSWarning":   MsgGPSUnavailable,
		"HasLocation":  form.Latitude != 0,
		"DownloadName": csvFilename,
	}

	h.saveSession(c, session)
	c.HTML(http.StatusOK, "index.html", data)
}

// Locate reverse-geocodes the coordinates the browser reported and keeps them in the session.
func (h *Handler) Locate(c *gin.Context) {
	ctx := c.Request.Context()

	var req locateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.DebugContext(ctx, "Location payload rejected", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgGPSUnavailable})
		return
	}

	coords := models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !coords.Captured() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgGPSUnavailable})
		return
	}

	address := h.service.Locate(ctx, coords)

	session := sessions.Default(c)
	form := loadForm(session)
	form.Latitude = coords.Latitude
	form.Longitude = coords.Longitude
	form.Street = address.Street
	form.District = address.District
	form.store(session)
	h.saveSession(c, session)

	c.JSON(http.StatusOK, locateResponse{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Street:    address.Street,
		District:  address.District,
	})
}

// Save appends the submitted record. Coordinates are taken from the session only.
func (h *Handler) Save(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	form := loadForm(session)

	if c.PostForm("form_key") != form.FormKey {
		h.log.InfoContext(ctx, "Stale form submitted")
		session.AddFlash(MsgStaleForm, flashWarning)
		h.redirectHome(c, session)
		return
	}

	form.BusinessName = c.PostForm("business_name")
	form.Street = c.PostForm("street")
	form.District = c.PostForm("district")

	record := models.Record{
		BusinessName: form.BusinessName,
		Street:       form.Street,
		District:     form.District,
		Latitude:     form.Latitude,
		Longitude:    form.Longitude,
	}

	err := h.service.Save(ctx, record)
	switch {
	case errors.Is(err, service.ErrIncompleteRecord):
		form.store(session)
		session.AddFlash(MsgIncomplete, flashWarning)
	case err != nil:
		h.log.ErrorContext(ctx, "Failed to save record", "error", err)
		form.store(session)
		session.AddFlash(MsgStoreFailed, flashWarning)
	default:
		resetForm(session)
		session.AddFlash(fmt.Sprintf(MsgSaved, record.BusinessName), flashSuccess)
	}

	h.redirectHome(c, session)
}

// Records returns the stored records as JSON.
func (h *Handler) Records(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := h.service.Preview(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to list records", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: MsgStoreFailed})
		return
	}
	if records == nil {
		records = []models.Record{}
	}

	c.JSON(http.StatusOK, records)
}

// Purge deletes every stored record.
func (h *Handler) Purge(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	if err := h.service.Purge(ctx); err != nil {
		h.log.ErrorContext(ctx, "Failed to delete records", "error", err)
		session.AddFlash(MsgStoreFailed, flashWarning)
	} else {
		session.AddFlash(MsgDeleted, flashSuccess)
	}

	h.redirectHome(c, session)
}

// Download sends the csv exactly as stored.
func (h *Handler) Download(c *gin.Context) {
	h.sendExport(c, h.service.Export, csvFilename, "text/csv")
}

// DownloadWorkbook sends the records as an xlsx workbook.
func (h *Handler) DownloadWorkbook(c *gin.Context) {
	h.sendExport(c, h.service.ExportWorkbook, xlsxFilename, xlsxMIME)
}

func (h *Handler) sendExport(
	c *gin.Context,
	export func(context.Context) ([]byte, error),
	filename, contentType string,
) {
	ctx := c.Request.Context()

	data, err := export(ctx)
	if err != nil {
		session := sessions.Default(c)
		if errors.Is(err, repository.ErrNoRecords) {
			session.AddFlash(MsgNoRecords, flashWarning)
		} else {
			h.log.ErrorContext(ctx, "Failed to export records", "error", err, "file", filename)
			session.AddFlash(MsgStoreFailed, flashWarning)
		}
		h.redirectHome(c, session)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) redirectHome(c *gin.Context, session sessions.Session) {
	h.saveSession(c, session)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) saveSession(c *gin.Context, session sessions.Session) {
	if err := session.Save(); err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to save session", "error", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/apperr"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/importer"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/model"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/store"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/welcome"
)

// defaultMaxUploadBytes caps an upload request when no limit is configured.
const defaultMaxUploadBytes = 50 << 20

// ContactStore is the part of the store the HTTP handlers read and write directly.
type ContactStore interface {
	Ping(ctx context.Context) error
	FindByID(ctx context.Context, id int64) (*model.Contact, error)
	SetContacted(ctx context.Context, id int64, contacted bool) (*time.Time, error)
	List(ctx context.Context, filter model.ListFilter) (model.ContactPage, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Importer turns uploaded files into contacts.
type Importer interface {
	Import(ctx context.Context, uploads []importer.Upload) (model.ImportSummary, error)
}

// InviteAssigner hands out invite codes.
type InviteAssigner interface {
	Ensure(ctx context.Context, contact *model.Contact) (string, error)
}

// Renderer produces welcome documents.
type Renderer interface {
	Render(ctx context.Context, name, code string) ([]byte, error)
}

// Options configure the HTTP layer. Zero values select the defaults.
type Options struct {
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	MaxUploadBytes int64
	LogRequests    bool
}

// Service is the REST API of the contacts application.
type Service struct {
	contacts       ContactStore
	importer       Importer
	invites        InviteAssigner
	renderer       Renderer
	logg           *logger.Logger
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	maxUploadBytes int64
	logRequests    bool
}

func New(contacts ContactStore, imp Importer, invites InviteAssigner, renderer Renderer, opts Options) *Service {
	s := &Service{
		contacts:       contacts,
		importer:       imp,
		invites:        invites,
		renderer:       renderer,
		logg:           opts.Logger,
		metrics:        opts.Metrics,
		gatherer:       opts.Gatherer,
		maxUploadBytes: opts.MaxUploadBytes,
		logRequests:    opts.LogRequests,
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	return s
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter() *gin.Engine {
	router := gin.New()
	router.Use(s.requestID(), s.observe())
	if s.logRequests {
		router.Use(s.requestLogger())
	}
	router.Use(gin.CustomRecovery(s.recover))

	api := router.Group("/api")
	api.GET("/contacts", s.listContacts)
	api.PUT("/contacts", s.updateContactStatus)
	api.GET("/contacts/:id/generate-pdf", s.generateWelcomeDocument)
	api.GET("/stats", s.stats)
	api.POST("/upload", s.upload)

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return router
}

// respondError answers with the JSON error body. Internal errors are logged and never expose
// their cause to the caller.
func (s *Service) respondError(c *gin.Context, err error) {
	typed := apperr.As(err)
	meta := apperr.MetadataFor(typed.Code())
	if meta.HTTPStatus >= http.StatusInternalServerError {
		s.logg.Error(c.Request.Context(), "request failed", err)
	}
	c.AbortWithStatusJSON(meta.HTTPStatus, gin.H{
		"error": typed.PublicMessage(),
		"code":  string(typed.Code()),
	})
}

// listQuery holds the URL parameters of the contact list.
type listQuery struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=50" binding:"min=1"`
	Contacted string `form:"contacted"`
	Search    string `form:"search"`
}

// listContacts responds with one page of contacts, newest first, as JSON.
//
// The URL parameters 'page' (starting at 1, default 1) and 'limit' (default 50) select the page.
// The URL parameter 'contacted' restricts the list to contacts with that status if it is 'true'
// or 'false'; any other value is ignored. The URL parameter 'search' matches name and category
// case-insensitively and the phone number literally.
//
// REST API calls:
//
//	> curl "http://localhost:8080/api/contacts"
//	> curl "http://localhost:8080/api/contacts?page=2&limit=20"
//	> curl "http://localhost:8080/api/contacts?contacted=false&search=kite"
func (s *Service) listContacts(c *gin.Context) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		s.respondError(c, apperr.Wrap(apperr.CodeValidation, err, "invalid page or limit parameter"))
		return
	}

	filter := model.ListFilter{Page: query.Page, Limit: query.Limit, Search: query.Search}
	switch query.Contacted {
	case "true":
		filter.Contacted = boolPtr(true)
	case "false":
		filter.Contacted = boolPtr(false)
	}

	page, err := s.contacts.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, apperr.Internal(err, "failed to fetch contacts"))
		return
	}
	c.IndentedJSON(http.StatusOK, page)
}

// statusRequest is the body of a status update. Both fields are mandatory; contacted must be a
// JSON boolean.
type statusRequest struct {
	Id        int64 `json:"id" binding:"required"`
	Contacted *bool `json:"contacted" binding:"required"`
}

// updateContactStatus sets or clears the contacted flag of one contact and responds with the
// contact after the update.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "PUT" --header "Content-Type: application/json" --data '{"id": 56, "contacted": true}'
func (s *Service) updateContactStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Wrap(apperr.CodeValidation, err, "invalid request data"))
		return
	}

	ctx := c.Request.Context()
	if _, err := s.findContact(ctx, req.Id); err != nil {
		s.respondError(c, err)
		return
	}
	if _, err := s.contacts.SetContacted(ctx, req.Id, *req.Contacted); err != nil {
		s.respondError(c, apperr.Internal(err, "failed to update contact"))
		return
	}
	contact, err := s.findContact(ctx, req.Id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "contact": contact})
}

// stats responds with the number of all, contacted and not yet contacted contacts.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/stats
func (s *Service) stats(c *gin.Context) {
	stats, err := s.contacts.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, apperr.Internal(err, "failed to fetch stats"))
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}

// upload imports the CSV and ZIP files of the multipart field 'files' and responds with the
// import counters.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/upload --form "files=@leads.csv" --form "files=@more-leads.zip"
func (s *Service) upload(c *gin.Context) {
	if c.Request.ContentLength > s.maxUploadBytes {
		s.respondError(c, apperr.New(apperr.CodePayloadTooLarge, "upload too large"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(c, apperr.Wrap(apperr.CodePayloadTooLarge, err, "upload too large"))
			return
		}
		s.respondError(c, apperr.Wrap(apperr.CodeValidation, err, "no files uploaded"))
		return
	}
	defer form.RemoveAll()

	headers := form.File["files"]
	if len(headers) == 0 {
		s.respondError(c, apperr.Validation("no files uploaded"))
		return
	}
	uploads := make([]importer.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			s.respondError(c, apperr.Internal(err, "failed to process files"))
			return
		}
		uploads = append(uploads, upload)
	}

	summary, err := s.importer.Import(c.Request.Context(), uploads)
	if err != nil {
		s.respondError(c, apperr.Internal(err, "failed to process files"))
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

func readUpload(header *multipart.FileHeader) (importer.Upload, error) {
	f, err := header.Open()
	if err != nil {
		return importer.Upload{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return importer.Upload{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return importer.Upload{Name: header.Filename, Data: data}, nil
}

// generateWelcomeDocument responds with the welcome PDF of the contact whose ID value matches the
// id parameter of the request URL. The contact receives an invite code on its first document.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56/generate-pdf --output welcome.pdf
func (s *Service) generateWelcomeDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, apperr.NotFound("Contact not found"))
		return
	}

	ctx := c.Request.Context()
	contact, err := s.findContact(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	code, err := s.invites.Ensure(ctx, contact)
	if err != nil {
		s.respondError(c, apperr.Internal(err, "failed to generate PDF"))
		return
	}
	doc, err := s.renderer.Render(ctx, contact.Name, code)
	if err != nil {
		s.respondError(c, apperr.Internal(err, "failed to generate PDF"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, welcome.Filename(contact.Name)))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// health responds with 200 if the database is reachable and with 503 otherwise.
func (s *Service) health(c *gin.Context) {
	if err := s.contacts.Ping(c.Request.Context()); err != nil {
		s.logg.Warn(c.Request.Context(), "health check failed", err)
		c.IndentedJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
}

// findContact loads a contact and maps a missing row to a not found error.
func (s *Service) findContact(ctx context.Context, id int64) (*model.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Contact not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load contact")
	}
	return contact, nil
}

func boolPtr(b bool) *bool {
	return &b
}

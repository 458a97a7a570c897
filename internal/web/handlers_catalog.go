package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ScanList/internal/core"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 64 << 10

// loadResponse is the JSON body of a successful catalog upload.
type loadResponse struct {
	Message string            `json:"message"`
	Report  core.IngestReport `json:"report"`
	Catalog core.CatalogInfo  `json:"catalog"`
	Warning *core.UserMessage `json:"warning,omitempty"`
}

// handleLoadCatalog ingests an uploaded CSV from the "file" form field.
func (s *Server) handleLoadCatalog(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrNoFile, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	report, err := s.service.LoadCatalog(withClient(r), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := loadResponse{
		Message: report.Message(),
		Report:  report,
		Catalog: s.service.CatalogStatus(),
	}
	if report.PersistErr != nil {
		msg := core.MapError(report.PersistErr)
		resp.Warning = &msg
	}

	if isHTMX(r) {
		_ = LoadResult(resp.Message, resp.Warning, resp.Catalog).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalogInfo(w http.ResponseWriter, r *http.Request) {
	info := s.service.CatalogStatus()
	if isHTMX(r) {
		_ = CatalogStatus(info).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleClearCatalog drops the catalog and its persisted copy.
func (s *Server) handleClearCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearCatalog(withClient(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.handleCatalogInfo(w, r)
}

// lookupResponse is the body of GET /api/lookup/{barcode}.
type lookupResponse struct {
	Barcode string              `json:"barcode"`
	Found   bool                `json:"found"`
	Product *core.ProductRecord `json:"product,omitempty"`
	Price   string              `json:"price_display,omitempty"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))
	res := lookupResponse{Barcode: barcode}

	status := http.StatusNotFound
	if rec, ok := s.service.Lookup(barcode); ok {
		res.Found = true
		res.Product = &rec
		res.Price = core.FormatPrice(rec.Price)
		status = http.StatusOK
	}

	if isHTMX(r) {
		// Not found is a normal answer for the fragment.
		_ = LookupResult(res).Render(r.Context(), w)
		return
	}
	writeJSON(w, status, res)
}

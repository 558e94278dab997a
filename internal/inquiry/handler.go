// AngelaMos | 2026
// handler.go

package inquiry

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/azadnexus/backend/internal/core"
	"github.com/azadnexus/backend/internal/middleware"
)

const maxSubmitBody = 64 << 10

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the public contact-form endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	submitLimiter func(http.Handler) http.Handler,
) {
	r.Route("/inquiries", func(r chi.Router) {
		r.With(submitLimiter).Post("/", h.Submit)
		r.Get("/varieties", h.Varieties)
	})
}

// RegisterAdminRoutes mounts the back-office endpoints. adminOnly runs before
// any path or query parsing.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/inquiries", func(r chi.Router) {
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Delete("/", h.Clear)
		r.Get("/stats", h.Stats)
		r.Get("/{inquiryID}", h.Get)
		r.Post("/{inquiryID}/resolve", h.MarkResolved)
		r.Delete("/{inquiryID}", h.Delete)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Normalize()
	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, err)
		return
	}

	id, err := h.service.Submit(r.Context(), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	middleware.LoggerFromContext(r.Context()).Info("inquiry submitted",
		"inquiry_id", id,
		"country", req.Country,
	)

	core.Created(w, SubmitResponse{ID: id})
}

func (h *Handler) Varieties(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, VarietiesResponse{Varieties: KnownVarieties})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortState, err := ParseSort(q.Get("sort"), q.Get("order"))
	if err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{"sort": err.Error()}))
		return
	}

	filter := Filter{
		Country: q.Get("country"),
		Search:  q.Get("search"),
	}
	if status := strings.ToLower(q.Get("status")); status != "" {
		if status != string(StatusPending) && status != string(StatusResolved) {
			core.JSONError(w, core.ValidationError(map[string]string{
				"status": "must be one of: pending resolved",
			}))
			return
		}
		filter.Status = Status(status)
	}

	items, err := h.service.List(r.Context(), ListParams{Sort: sortState, Filter: filter})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	loc, err := ParseLocation(r.URL.Query().Get("tz"))
	if err != nil {
		core.JSONError(w, core.ValidationError(map[string]string{"tz": "unknown time zone"}))
		return
	}

	stats, err := h.service.Stats(r.Context(), loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	inq, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	core.OK(w, ToResponse(inq))
}

func (h *Handler) MarkResolved(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkResolved(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Clear(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.LoggerFromContext(r.Context()).Warn("inquiries cleared",
		"user_id", middleware.GetUserID(r.Context()),
		"deleted", n,
	)

	core.OK(w, ClearResponse{Deleted: n})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "inquiry")
		return
	}

	middleware.LoggerFromContext(r.Context()).Error("inquiry operation failed",
		"user_id", middleware.GetUserID(r.Context()),
		"error", err,
	)
	core.InternalServerError(w, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "inquiryID"), 10, 64)
	if err != nil || id <= 0 {
		core.JSONError(w, core.ValidationError(map[string]string{
			"id": "must be a positive integer",
		}))
		return 0, false
	}
	return id, true
}

// ParseLocation resolves an IANA zone name; empty means UTC.
func ParseLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

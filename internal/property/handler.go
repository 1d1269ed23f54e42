// AngelaMos | 2026
// handler.go

package property

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/estate-market/internal/core"
	"github.com/carterperez-dev/estate-market/internal/media"
	"github.com/carterperez-dev/estate-market/internal/middleware"
)

const multipartOverhead = 1 << 20

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		validator:      core.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts /properties. Reads are public; create is seller
// only; mutation ownership is enforced in the service.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	sellerOnly := middleware.RequireRole(middleware.RoleSeller)

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.With(sellerOnly).Get("/mine", h.Mine)
			r.With(sellerOnly).Post("/", h.Create)

			r.Put("/{id}", h.Update)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.With(adminOnly).Patch("/{id}/verify", h.Verify)

			r.Post("/{id}/images", h.UploadImage)
			r.Delete("/{id}/images/{imageID}", h.DeleteImage)
		})

		r.Get("/{id}", h.Get)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params, fields := ParseListParams(r)
	if len(fields) > 0 {
		core.ValidationFailed(w, fields)
		return
	}

	properties, total, err := h.service.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, properties, params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, p)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	page := core.ParsePage(r)

	properties, total, err := h.service.Mine(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		page,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, properties, page.Page, page.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, core.FieldErrors(err))
		return
	}

	p, err := h.service.Create(r.Context(), middleware.GetIdentity(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.ValidationFailed(w, core.FieldErrors(err))
		return
	}

	p, err := h.service.Update(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "id"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Verify(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, p)
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, _, err := r.FormFile("image")
	if err != nil {
		core.ValidationFailed(w, map[string]string{
			"image": "image file is required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		core.ValidationFailed(w, map[string]string{
			"image": "image could not be read",
		})
		return
	}

	p, err := h.service.AddImage(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "id"),
		data,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, p)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.RemoveImage(
		r.Context(),
		middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "imageID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, p)
}

// ParseListParams reads the public search query. Malformed numbers are
// reported per field rather than ignored.
func ParseListParams(r *http.Request) (ListParams, map[string]string) {
	q := r.URL.Query()
	fields := make(map[string]string)

	params := ListParams{
		PageParams:   core.ParsePage(r),
		PropertyType: firstNonEmpty(q.Get("propertyType"), q.Get("type")),
		City:         q.Get("city"),
		State:        q.Get("state"),
		Status:       q.Get("status"),
	}

	params.MinPrice = parseFloat(q.Get("minPrice"), "minPrice", fields)
	params.MaxPrice = parseFloat(q.Get("maxPrice"), "maxPrice", fields)

	if raw := q.Get("minBedrooms"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["minBedrooms"] = "minBedrooms must be a non-negative integer"
		} else {
			params.MinBedrooms = &n
		}
	}

	if params.MinPrice != nil && params.MaxPrice != nil &&
		*params.MinPrice > *params.MaxPrice {
		fields["minPrice"] = "minPrice must not exceed maxPrice"
	}

	return params, fields
}

func parseFloat(raw, name string, fields map[string]string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		fields[name] = name + " must be a non-negative number"
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "property")
	case errors.Is(err, ErrImageNotFound):
		core.NotFound(w, "image")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "only the owning seller or an admin can modify this listing")
	case errors.Is(err, media.ErrMediaDisabled):
		core.JSONError(w, core.UnavailableError("image uploads are not configured"))
	case errors.Is(err, media.ErrUnsupportedImage):
		core.ValidationFailed(w, map[string]string{
			"image": "image must be jpeg, png, gif or webp",
		})
	case errors.Is(err, media.ErrImageTooLarge):
		core.ValidationFailed(w, map[string]string{
			"image": "image exceeds the upload size limit",
		})
	default:
		core.InternalServerError(w, err)
	}
}

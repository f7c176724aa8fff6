package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
	"github.com/rl1809/product-catalog/internal/core/service"
	"github.com/rl1809/product-catalog/pkg/logger"
)

type HTTPHandler struct {
	catalog  *service.CatalogService
	validate *validator.Validate
	log      *logger.Logger
}

type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewHTTPHandler(catalog *service.CatalogService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		catalog:  catalog,
		validate: newValidator(),
		log:      log.WithComponent("http"),
	}
}

// Router mounts the product REST API and the health check.
func (h *HTTPHandler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Tracing)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	if opts.RateLimitRPS > 0 {
		r.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.ListAll)
		r.Get("/search", h.SearchByName)
		r.Get("/price-range", h.ListByPriceRange)
		r.Get("/low-stock", h.ListWithStockBelow)
		r.Get("/name/{name}", h.GetByName)
		r.Get("/category/{category}", h.ListByCategory)
		r.Get("/category/{category}/price-range", h.ListByCategoryAndPriceRange)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Patch("/{id}/stock", h.UpdateStockQuantity)
	})

	return r
}

func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (h *HTTPHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAll(r.Context())
	h.respondList(w, r, products, err)
}

func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetByID(r.Context(), pathParam(r, "id"))
	h.respondOne(w, r, product, err)
}

func (h *HTTPHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetByName(r.Context(), pathParam(r, "name"))
	h.respondOne(w, r, product, err)
}

func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.Update(r.Context(), pathParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), pathParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListByCategory(r.Context(), pathParam(r, "category"))
	h.respondList(w, r, products, err)
}

func (h *HTTPHandler) ListByPriceRange(w http.ResponseWriter, r *http.Request) {
	min, max, ok := priceRangeParams(w, r)
	if !ok {
		return
	}
	products, err := h.catalog.ListByPriceRange(r.Context(), min, max)
	h.respondList(w, r, products, err)
}

func (h *HTTPHandler) ListWithStockBelow(w http.ResponseWriter, r *http.Request) {
	quantity, ok := intParam(w, r, "quantity")
	if !ok {
		return
	}
	products, err := h.catalog.ListWithStockBelow(r.Context(), quantity)
	h.respondList(w, r, products, err)
}

func (h *HTTPHandler) SearchByName(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("name") {
		writeError(w, http.StatusBadRequest, "missing required parameter: name")
		return
	}
	products, err := h.catalog.SearchByName(r.Context(), query.Get("name"))
	h.respondList(w, r, products, err)
}

func (h *HTTPHandler) ListByCategoryAndPriceRange(w http.ResponseWriter, r *http.Request) {
	min, max, ok := priceRangeParams(w, r)
	if !ok {
		return
	}
	products, err := h.catalog.ListByCategoryAndPriceRange(r.Context(), pathParam(r, "category"), min, max)
	h.respondList(w, r, products, err)
}

func (h *HTTPHandler) UpdateStockQuantity(w http.ResponseWriter, r *http.Request) {
	quantity, ok := intParam(w, r, "quantity")
	if !ok {
		return
	}

	product, err := h.catalog.UpdateStockQuantity(r.Context(), pathParam(r, "id"), quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeInput reads and validates a product body. On failure it has already
// written the response.
func (h *HTTPHandler) decodeInput(w http.ResponseWriter, r *http.Request) (domain.ProductInput, bool) {
	var in domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}

	if err := h.validate.Struct(in); err != nil {
		writeJSON(w, http.StatusBadRequest, fieldErrors(err))
		return in, false
	}

	return in, true
}

func (h *HTTPHandler) respondOne(w http.ResponseWriter, r *http.Request, product *domain.Product, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) respondList(w http.ResponseWriter, r *http.Request, products []domain.Product, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).Errorw("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, message)
}

// pathParam returns a decoded URL parameter. chi matches against RawPath when
// the request carries escaped slashes, so such segments arrive still encoded.
func pathParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

func priceRangeParams(w http.ResponseWriter, r *http.Request) (decimal.Decimal, decimal.Decimal, bool) {
	min, ok := decimalParam(w, r, "minPrice")
	if !ok {
		return decimal.Zero, decimal.Zero, false
	}
	max, ok := decimalParam(w, r, "maxPrice")
	if !ok {
		return decimal.Zero, decimal.Zero, false
	}
	return min, max, true
}

func decimalParam(w http.ResponseWriter, r *http.Request, name string) (decimal.Decimal, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: "+name)
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid decimal parameter: "+name)
		return decimal.Zero, false
	}
	return d, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: "+name)
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integer parameter: "+name)
		return 0, false
	}
	return n, true
}

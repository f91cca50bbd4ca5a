package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leon-morival/cynaMobile/internal/domain"
)

// CatalogReader is the slice of the catalog cache the handler exposes.
type CatalogReader interface {
	Refresh(ctx context.Context) error
	Categories() []domain.Category
	Products() []domain.Product
	SearchProducts(query, lang string) []domain.Product
	ProductsByCategory(categoryID int64) []domain.Product
	FindProductByID(id int64) (*domain.Product, bool)
}

type CatalogHandler struct {
	catalog CatalogReader
	lang    string
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogReader, lang string, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, lang: lang, timeout: timeout}
}

// ProductDTO flattens the translated fields for the configured language.
type ProductDTO struct {
	ID          int64                    `json:"id"`
	CategoryID  int64                    `json:"category_id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Image       string                   `json:"image,omitempty"`
	Intervals   []domain.BillingInterval `json:"intervals"`
}

func (h *CatalogHandler) toDTO(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		p := &products[i]
		out = append(out, ProductDTO{
			ID:          p.ID,
			CategoryID:  p.CategoryID,
			Name:        p.Name(h.lang),
			Description: p.Description(h.lang),
			Image:       p.Image,
			Intervals:   p.Intervals(),
		})
	}
	return out
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.toDTO(h.catalog.Products()))
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.Categories()
	type categoryDTO struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]categoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, categoryDTO{ID: categories[i].ID, Name: categories[i].Name(h.lang)})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	respondJSON(w, http.StatusOK, h.toDTO(h.catalog.SearchProducts(query, h.lang)))
}

func (h *CatalogHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "category id must be a positive integer")
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(h.catalog.ProductsByCategory(id)))
}

func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.Refresh(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

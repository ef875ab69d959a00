package httpapi

import (
	"net/http"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	values, page, verr := parseProductQuery(r.URL.Query())
	if verr != nil {
		writeValidation(w, verr)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), values, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]productResource, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResource(p))
	}
	writeSuccess(w, http.StatusOK, out, "")
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Failed to find the product.")
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newProductResource(p), "")
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !bind(w, r, &req) {
		return
	}

	p, _, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, newProductResource(p), "Successfully created the product!")
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Failed to find the product.")
		return
	}
	var req productRequest
	if !bind(w, r, &req) {
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newProductResource(p), "Successfully updated the product!")
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Failed to find the product.")
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Product successfully deleted.")
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]categoryResource, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResource{ID: c.ID, Title: c.Title})
	}
	writeSuccess(w, http.StatusOK, out, "")
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !bind(w, r, &req) {
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), req.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, categoryResource{ID: c.ID, Title: c.Title}, "Successfully created the category!")
}

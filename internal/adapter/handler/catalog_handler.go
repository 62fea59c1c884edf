package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type WishlistItemRequest struct {
	ProductID string `json:"productId"`
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := h.categories.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch domain.CategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	category, err := h.categories.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListProductReviews(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *HTTPHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListUserReviews(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *HTTPHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeMessage(w, http.StatusBadRequest, "productId is required")
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), userID(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *HTTPHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var patch domain.ReviewPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *HTTPHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.DeleteReview(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.wishlist.GetWishlist(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

func (h *HTTPHandler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req WishlistItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeMessage(w, http.StatusBadRequest, "productId is required")
		return
	}

	item, err := h.wishlist.AddItem(r.Context(), userID(r), req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "productId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.Clear(r.Context(), userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.SalesReport(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

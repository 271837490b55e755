package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/polynews/backend/internal/domain"
	"github.com/polynews/backend/internal/service"
)

// FeedService is what the feed handlers need from the service layer.
type FeedService interface {
	EditorialFeed(ctx context.Context, category domain.Category) (domain.FeedLayout, error)
	MarketsFeed(ctx context.Context, q service.FeedQuery) (service.FeedPage, error)
}

// FeedHandler serves the editorial feed and the market feed listing.
type FeedHandler struct {
	feeds  FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(feeds FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, logger: logger}
}

// EditorialFeed returns the composed layout in a single response.
// GET /api/v1/feed?category=crypto
func (h *FeedHandler) EditorialFeed(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(r.URL.Query().Get("category"))

	layout, err := h.feeds.EditorialFeed(r.Context(), category)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: editorial feed failed",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to build feed")
		return
	}

	writeJSON(w, http.StatusOK, layout)
}

// ListMarkets returns a sorted, paginated page of market cards.
// GET /api/markets?category=crypto&sort=trending&limit=50&offset=0
func (h *FeedHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := service.FeedQuery{
		Category: domain.Category(q.Get("category")),
		Sort:     q.Get("sort"),
	}
	var err error
	if query.Limit, err = intParam(q.Get("limit"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if query.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	page, err := h.feeds.MarketsFeed(r.Context(), query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to list markets")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/polynews/backend/internal/domain"
	"github.com/polynews/backend/internal/service"
)

// MarketService is what the market handlers need from the service layer.
type MarketService interface {
	Detail(ctx context.Context, id string) (service.MarketDetail, error)
	Categories(ctx context.Context) ([]domain.CategoryInfo, error)
}

// MarketHandler serves market detail and the category taxonomy.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

// GetMarket returns one market with snapshot data and price history.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	detail, err := h.markets.Detail(r.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.ErrorContext(r.Context(), "handler: market detail failed",
				slog.String("market_id", id),
				slog.String("error", err.Error()),
			)
		}
		writeServiceError(w, err, "failed to load market")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// ListCategories returns the taxonomy with counts and featured ids.
// GET /api/categories
func (h *MarketHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	infos, err := h.markets.Categories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: categories failed",
			slog.String("error", err.Error()),
		)
		writeServiceError(w, err, "failed to load categories")
		return
	}

	writeJSON(w, http.StatusOK, infos)
}

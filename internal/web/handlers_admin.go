package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/feedsync/internal/core"
)

// maxFeedBuildsLimit caps the page size of the history listing.
const maxFeedBuildsLimit = 500

// handleProducts returns catalog products matching ?sku=a,b.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	skus := splitList(r.URL.Query().Get("sku"))
	if len(skus) == 0 {
		writeError(w, http.StatusBadRequest, "sku query parameter is required")
		return
	}

	products, err := s.products.ProductsBySKUs(r.Context(), skus)
	if err != nil {
		s.respondError(w, r, core.WrapUpstream(core.ServiceCommerce, "products by sku", err))
		return
	}
	writeJSON(w, products)
}

// handlePublishOffers builds the offer feed and uploads it to Drive.
func (s *Server) handlePublishOffers(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil || !s.cfg.Drive.Enabled {
		writeError(w, http.StatusNotFound, "publishing is disabled")
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)

	file, err := s.service.PublishOffers(ctx, s.publisher, s.cfg.Drive.FileName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, file)
}

// handleFeedBuilds lists recent feed builds, newest first.
func (s *Server) handleFeedBuilds(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", s.cfg.History.DefaultLimit)
	if limit > maxFeedBuildsLimit {
		limit = maxFeedBuildsLimit
	}

	builds, err := s.service.RecentBuilds(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"builds": builds,
		"limit":  limit,
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

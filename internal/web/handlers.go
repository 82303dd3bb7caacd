package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/feedsync/internal/web/templates"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleOffersXML serves the XML offer feed. Shared caches may keep it for
// the configured s-maxage; browsers must revalidate.
func (s *Server) handleOffersXML(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	doc, err := s.service.OffersXML(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, s-maxage="+strconv.Itoa(int(s.cfg.Feed.CacheSharedMaxAge.Seconds()))+", max-age=0")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// handleStockFeed serves the JSON stock feed.
func (s *Server) handleStockFeed(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	feed, err := s.service.StockFeed(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body, err := feed.Encode()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleStockCheck renders the stock check page.
func (s *Server) handleStockCheck(w http.ResponseWriter, r *http.Request) {
	s.renderReport(w, r, "Перевірка товарів та залишків", false)
}

// handleProductTable renders the stock check page with product IDs.
func (s *Server) handleProductTable(w http.ResponseWriter, r *http.Request) {
	s.renderReport(w, r, "Таблиця товарів", true)
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, title string, withCode bool) {
	ctx := WithRequestMetadata(r.Context(), r)

	report, err := s.service.StockReport(ctx)
	if err != nil {
		s.respondErrorPage(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	templates.StockReport(title, report, withCode).Render(ctx, w)
}

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

func (s *Server) adminOrders(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	qv := r.URL.Query()
	page, _ := strconv.Atoi(qv.Get("page"))
	pageSize, _ := strconv.Atoi(qv.Get("page_size"))
	var status *domain.OrderStatus
	if v := qv.Get("status"); v != "" {
		st := domain.OrderStatus(v)
		status = &st
	}
	list, total, err := s.orders.List(r.Context(), status, page, pageSize)
	if err != nil {
		http.Error(w, "orders", 500)
		return
	}
	writeJSON(w, 200, map[string]any{"items": list, "total": total})
}

// adminOrdersReport aggregates orders placed in a date range (inclusive,
// YYYY-MM-DD). Defaults to the last 30 days.
func (s *Server) adminOrdersReport(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	qv := r.URL.Query()
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := qv.Get("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "from", 400)
			return
		}
		from = d
	}
	if v := qv.Get("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "to", 400)
			return
		}
		to = d
	}
	rep, err := s.orders.Report(r.Context(), from, to)
	if err != nil {
		http.Error(w, "report", 500)
		return
	}
	writeJSON(w, 200, rep)
}

// adminOrderByID serves GET and status updates on /api/admin/orders/{id}.
func (s *Server) adminOrderByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/orders/"), "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		o, err := s.orders.Get(r.Context(), id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, 200, o)
	case http.MethodPut:
		var req struct {
			Status domain.OrderStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			http.Error(w, "json", 400)
			return
		}
		switch req.Status {
		case domain.OrderStatusAwaitingPay, domain.OrderStatusConfirmed, domain.OrderStatusPacked,
			domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		default:
			http.Error(w, "status", 400)
			return
		}
		if err := s.orders.SetStatus(r.Context(), id, req.Status); err != nil {
			http.Error(w, "update", 500)
			return
		}
		writeJSON(w, 200, map[string]any{"status": req.Status, "id": id})
	default:
		http.Error(w, "method", 405)
	}
}

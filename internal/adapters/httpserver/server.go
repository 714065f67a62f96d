package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
	"github.com/akashffjdn/Crackers-sub000/internal/usecase"
)

// ProductImageFinder is the admin-side product photo search.
type ProductImageFinder interface {
	SearchImages(ctx context.Context, productName, category string, maxResults int) ([]string, error)
}

type Server struct {
	mux         *http.ServeMux
	categories  *usecase.CategoryStore
	products    *usecase.ProductStore
	collections *usecase.CollectionUC
	orders      *usecase.OrderUC
	customers   domain.CustomerRepo
	finder      ProductImageFinder
	oauthCfg    *oauth2.Config

	adminAllowed map[string]struct{}
	adminSecret  []byte
}

func New(cats *usecase.CategoryStore, prods *usecase.ProductStore, cols *usecase.CollectionUC, orders *usecase.OrderUC, customers domain.CustomerRepo, finder ProductImageFinder, oauthCfg *oauth2.Config) http.Handler {
	s := &Server{
		mux:         http.NewServeMux(),
		categories:  cats,
		products:    prods,
		collections: cols,
		orders:      orders,
		customers:   customers,
		finder:      finder,
		oauthCfg:    oauthCfg,
	}

	allowed := map[string]struct{}{}
	if raw := os.Getenv("ADMIN_ALLOWED_EMAILS"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e != "" {
				allowed[e] = struct{}{}
			}
		}
	}
	// Console logins without an explicit allow-list fall back to the
	// configured admin user. The map is never written after this point;
	// request handlers only read it.
	if len(allowed) == 0 {
		if u := os.Getenv("ADMIN_USER"); u != "" {
			allowed[strings.ToLower(u)+"@local"] = struct{}{}
		}
	}
	s.adminAllowed = allowed
	sec := os.Getenv("JWT_ADMIN_SECRET")
	if sec == "" {
		sec = os.Getenv("SECRET_KEY")
	}
	if sec == "" {
		sec = "dev-admin-secret"
	}
	s.adminSecret = []byte(sec)

	s.routes()
	return Chain(s.mux,
		PublicRateLimit(map[string]int{
			"/cart/checkout": 10,
			"/admin/login":   15,
			"/admin/auth":    15,
		}),
		RateLimit(120),
		SecurityHeaders,
		Gzip,
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	// storefront
	s.mux.HandleFunc("/api/products", s.apiProducts)
	s.mux.HandleFunc("/api/products/", s.apiProductByID)
	s.mux.HandleFunc("/api/categories", s.apiCategories)
	s.mux.HandleFunc("/api/collections", s.apiCollections)
	s.mux.HandleFunc("/api/collections/", s.apiCollectionBySlug)

	// cart
	s.mux.HandleFunc("/cart", s.handleCart)
	s.mux.HandleFunc("/cart/update", s.handleCartUpdate)
	s.mux.HandleFunc("/cart/remove", s.handleCartRemove)
	s.mux.HandleFunc("/cart/checkout", s.handleCartCheckout)

	// customer auth
	s.mux.HandleFunc("/auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	s.mux.HandleFunc("/logout", s.handleLogout)

	// admin auth
	s.mux.HandleFunc("/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/admin/auth", s.handleAdminAuth)
	s.mux.HandleFunc("/admin/logout", s.handleAdminLogout)

	// admin console
	s.mux.HandleFunc("/api/admin/refresh", s.adminRefresh)
	s.mux.HandleFunc("/api/admin/products", s.adminProducts)
	s.mux.HandleFunc("/api/admin/products/", s.adminProductByID)
	s.mux.HandleFunc("/api/admin/categories", s.adminCategories)
	s.mux.HandleFunc("/api/admin/categories/", s.adminCategoryByID)
	s.mux.HandleFunc("/api/admin/collections", s.adminCollections)
	s.mux.HandleFunc("/api/admin/collections/", s.adminCollectionByID)
	s.mux.HandleFunc("/api/admin/export/xlsx", s.adminExportXLSX)
	s.mux.HandleFunc("/api/admin/orders", s.adminOrders)
	s.mux.HandleFunc("/api/admin/orders/", s.adminOrderByID)
	s.mux.HandleFunc("/api/admin/orders/report", s.adminOrdersReport)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreError maps a store failure to the JSON error body clients render.
func writeStoreError(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Something went wrong"
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{"message": msg})
}

// apiProducts serves the filtered/sorted catalog view. All filter stages are
// optional and combine freely.
func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	if err := s.products.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.products.Err())
		return
	}
	f := parseProductFilter(r)
	list := usecase.FilterProducts(s.products.All(), f)
	writeJSON(w, 200, map[string]any{"products": list, "total": len(list)})
}

func parseProductFilter(r *http.Request) domain.ProductFilter {
	qv := r.URL.Query()
	f := domain.ProductFilter{
		Category:   qv.Get("category"),
		SoundLevel: domain.SoundLevel(qv.Get("sound_level")),
		Query:      qv.Get("q"),
		Sort:       qv.Get("sort"),
	}
	if v := qv.Get("min_price"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &n
		}
	}
	if v := qv.Get("max_price"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &n
		}
	}
	if v := qv.Get("min_rating"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinRating = &n
		}
	}
	if v := qv.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	return f
}

func (s *Server) apiProductByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if err := s.products.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.products.Err())
		return
	}
	p, ok := s.products.Lookup(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, 200, p)
}

// apiCategories returns the category list with the derived product count per
// category, computed against the current product snapshot.
func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	if err := s.categories.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.categories.Err())
		return
	}
	_ = s.products.EnsureLoaded(r.Context())
	cats := s.categories.All()
	for i := range cats {
		cats[i].ProductCount = s.products.CountByCategory(cats[i].ID)
	}
	writeJSON(w, 200, cats)
}

func (s *Server) apiCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	list, err := s.collections.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, "collections", 500)
		return
	}
	writeJSON(w, 200, list)
}

// apiCollectionBySlug serves /api/collections/{slug} and
// /api/collections/{slug}/packs/{id}.
func (s *Server) apiCollectionBySlug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/collections/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	c, err := s.collections.GetBySlug(r.Context(), parts[0])
	if err != nil || !c.IsActive {
		http.NotFound(w, r)
		return
	}
	if err := s.products.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.products.Err())
		return
	}

	if len(parts) == 3 && parts[1] == "packs" {
		packID, err := uuid.Parse(parts[2])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		pack, ok := s.collections.PackByID(*c, packID)
		if !ok || !pack.IsActive {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, 200, s.packView(pack))
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	packs := []packView{}
	for _, p := range s.collections.ActivePacks(*c) {
		packs = append(packs, s.packView(p))
	}
	writeJSON(w, 200, map[string]any{
		"collection": c,
		"products":   s.collections.Resolve(*c),
		"packs":      packs,
	})
}

type packView struct {
	domain.ProductPack
	Savings float64 `json:"savings"`
}

func (s *Server) packView(p domain.ProductPack) packView {
	return packView{
		ProductPack: p,
		Savings:     usecase.PackSavings(p, s.products.Lookup),
	}
}

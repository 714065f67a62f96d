package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
	"github.com/akashffjdn/Crackers-sub000/internal/usecase"
	"github.com/xuri/excelize/v2"
)

// --- token auth ---

func (s *Server) issueAdminToken(email string, dur time.Duration) (string, time.Time, error) {
	head := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	exp := time.Now().Add(dur)
	claims := map[string]any{"sub": email, "email": email, "role": "admin", "exp": exp.Unix(), "iat": time.Now().Unix(), "iss": "crackers"}
	b, _ := json.Marshal(claims)
	pay := base64.RawURLEncoding.EncodeToString(b)
	unsigned := head + "." + pay
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(unsigned))
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return unsigned + "." + sig, exp, nil
}

func (s *Server) verifyAdminToken(tok string) (string, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("format")
	}
	unsigned := parts[0] + "." + parts[1]
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("sig")
	}
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(unsigned))
	if !hmac.Equal(sig, h.Sum(nil)) {
		return "", fmt.Errorf("signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("payload")
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", fmt.Errorf("json")
	}
	role, _ := m["role"].(string)
	email, _ := m["email"].(string)
	expF, _ := m["exp"].(float64)
	if role != "admin" || email == "" {
		return "", fmt.Errorf("claims")
	}
	if time.Now().Unix() > int64(expF) {
		return "", fmt.Errorf("expired")
	}
	if _, ok := s.adminAllowed[strings.ToLower(email)]; !ok {
		return "", fmt.Errorf("not allowed")
	}
	return email, nil
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := 0; i < len(a); i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

func (s *Server) readAdminToken(r *http.Request) string {
	c, err := r.Cookie("admin_token")
	if err != nil || c.Value == "" {
		return ""
	}
	return c.Value
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		if _, err := s.verifyAdminToken(strings.TrimSpace(auth[7:])); err == nil {
			return true
		}
	}
	if tok := s.readAdminToken(r); tok != "" {
		if _, err := s.verifyAdminToken(tok); err == nil {
			return true
		}
	}
	http.Error(w, "unauthorized", 401)
	return false
}

// handleAdminLogin trades the admin API key for a short-lived bearer token.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	cfgKey := os.Getenv("ADMIN_API_KEY")
	if cfgKey == "" {
		log.Error().Msg("ADMIN_API_KEY missing")
		http.Error(w, "config", 500)
		return
	}
	apiKey := r.Header.Get("X-Admin-Key")
	if apiKey == "" || !secureCompare(apiKey, cfgKey) {
		http.Error(w, "unauthorized", 401)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" && len(s.adminAllowed) == 1 {
		for k := range s.adminAllowed {
			email = k
		}
	}
	if _, ok := s.adminAllowed[email]; !ok {
		http.Error(w, "forbidden", 403)
		return
	}
	tok, exp, err := s.issueAdminToken(email, 30*time.Minute)
	if err != nil {
		http.Error(w, "token", 500)
		return
	}
	writeJSON(w, 200, map[string]any{"token": tok, "exp": exp.Unix(), "email": email})
}

// handleAdminAuth is the user/pass console login; success sets the cookie the
// admin UI rides on.
func (s *Server) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	var req struct {
		User string `json:"user"`
		Pass string `json:"pass"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "json", 400)
		return
	}
	cfgUser := os.Getenv("ADMIN_USER")
	cfgPass := os.Getenv("ADMIN_PASS")
	if cfgUser == "" || cfgPass == "" {
		log.Error().Msg("ADMIN_USER/ADMIN_PASS missing")
		http.Error(w, "config", 500)
		return
	}
	if !secureCompare(req.User, cfgUser) || !secureCompare(req.Pass, cfgPass) {
		http.Error(w, "credentials", 401)
		return
	}
	// adminAllowed is immutable after New(); pick an allowed identity for
	// the token instead of admitting the raw user name.
	email := strings.ToLower(req.User) + "@local"
	if _, ok := s.adminAllowed[email]; !ok {
		for k := range s.adminAllowed {
			email = k
			break
		}
	}
	tok, _, err := s.issueAdminToken(email, 6*time.Hour)
	if err != nil {
		http.Error(w, "token", 500)
		return
	}
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: "admin_token", Value: tok, Path: "/", MaxAge: 60 * 60 * 6, HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode})
	writeJSON(w, 200, map[string]any{"status": "ok", "email": email})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: "admin_token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode})
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

// --- catalog stores ---

// adminRefresh re-fetches both catalog stores from the backend. This is the
// retry affordance after a failed load; a failure here clears the affected
// store and reports its message.
func (s *Server) adminRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	catErr := s.categories.Refresh(r.Context())
	prodErr := s.products.Refresh(r.Context())
	resp := map[string]any{
		"categories": len(s.categories.All()),
		"products":   len(s.products.All()),
	}
	if catErr != nil {
		resp["categoriesError"] = catErr.Error()
	}
	if prodErr != nil {
		resp["productsError"] = prodErr.Error()
	}
	code := 200
	if catErr != nil || prodErr != nil {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, resp)
}

func (s *Server) adminProducts(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		if err := s.products.EnsureLoaded(r.Context()); err != nil {
			writeStoreError(w, s.products.Err())
			return
		}
		list := s.products.All()
		writeJSON(w, 200, map[string]any{"items": list, "total": len(list)})
	case http.MethodPost:
		var p domain.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "json", 400)
			return
		}
		if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
			http.Error(w, "data", 400)
			return
		}
		created, err := s.products.Create(r.Context(), p)
		if err != nil {
			writeStoreError(w, err.Error())
			return
		}
		writeJSON(w, 201, created)
	default:
		http.Error(w, "method", 405)
	}
}

// adminProductByID covers /api/admin/products/{id} plus the two POST
// sub-actions /find-images and /describe.
func (s *Server) adminProductByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/products/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		switch parts[1] {
		case "find-images":
			s.adminFindImages(w, r, id)
		case "describe":
			s.adminDescribe(w, r, id)
		default:
			http.NotFound(w, r)
		}
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
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
	case http.MethodPut:
		var p domain.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "json", 400)
			return
		}
		updated, err := s.products.Update(r.Context(), id, p)
		if err != nil {
			writeStoreError(w, err.Error())
			return
		}
		writeJSON(w, 200, updated)
	case http.MethodDelete:
		if err := s.products.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{"status": "deleted", "id": id})
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) adminCategories(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		if err := s.categories.EnsureLoaded(r.Context()); err != nil {
			writeStoreError(w, s.categories.Err())
			return
		}
		list := s.categories.All()
		writeJSON(w, 200, map[string]any{"items": list, "total": len(list)})
	case http.MethodPost:
		var c domain.Category
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "json", 400)
			return
		}
		if strings.TrimSpace(c.Name) == "" {
			http.Error(w, "name", 400)
			return
		}
		created, err := s.categories.Create(r.Context(), c)
		if err != nil {
			writeStoreError(w, err.Error())
			return
		}
		writeJSON(w, 201, created)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) adminCategoryByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/categories/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var c domain.Category
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "json", 400)
			return
		}
		updated, err := s.categories.Update(r.Context(), id, c)
		if err != nil {
			writeStoreError(w, err.Error())
			return
		}
		writeJSON(w, 200, updated)
	case http.MethodDelete:
		if err := s.categories.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{"status": "deleted", "id": id})
	default:
		http.Error(w, "method", 405)
	}
}

// --- collections ---

func (s *Server) adminCollections(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := s.collections.List(r.Context(), false)
		if err != nil {
			http.Error(w, "collections", 500)
			return
		}
		writeJSON(w, 200, list)
	case http.MethodPost:
		var c domain.FestivalCollection
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "json", 400)
			return
		}
		if strings.TrimSpace(c.Title) == "" {
			http.Error(w, "title", 400)
			return
		}
		if err := s.collections.Create(r.Context(), &c); err != nil {
			log.Error().Err(err).Msg("create collection")
			http.Error(w, "create", 500)
			return
		}
		writeJSON(w, 201, c)
	default:
		http.Error(w, "method", 405)
	}
}

// adminCollectionByID serves /api/admin/collections/{id} and the nested
// /packs[/{packId}] routes.
func (s *Server) adminCollectionByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/collections/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if len(parts) >= 2 && parts[1] == "packs" {
		s.adminPacks(w, r, id, parts[2:])
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, err := s.collections.Collections.FindByID(r.Context(), id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, 200, c)
	case http.MethodPut:
		var c domain.FestivalCollection
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "json", 400)
			return
		}
		c.ID = id
		if err := s.collections.Update(r.Context(), &c); err != nil {
			if errors.Is(err, usecase.ErrSlugTaken) {
				writeJSON(w, http.StatusConflict, map[string]any{"message": "Slug already in use"})
				return
			}
			log.Error().Err(err).Msg("update collection")
			http.Error(w, "update", 500)
			return
		}
		writeJSON(w, 200, c)
	case http.MethodDelete:
		if err := s.collections.Delete(r.Context(), id); err != nil {
			http.Error(w, "delete", 500)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "deleted", "id": id})
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) adminPacks(w http.ResponseWriter, r *http.Request, collectionID uuid.UUID, rest []string) {
	if _, err := s.collections.Collections.FindByID(r.Context(), collectionID); err != nil {
		http.NotFound(w, r)
		return
	}
	if len(rest) == 0 || rest[0] == "" {
		switch r.Method {
		case http.MethodPost:
			var p domain.ProductPack
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, "json", 400)
				return
			}
			if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
				http.Error(w, "data", 400)
				return
			}
			if err := s.collections.SavePack(r.Context(), collectionID, &p); err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
			writeJSON(w, 201, p)
		default:
			http.Error(w, "method", 405)
		}
		return
	}
	packID, err := uuid.Parse(rest[0])
	if err != nil || len(rest) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var p domain.ProductPack
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "json", 400)
			return
		}
		p.ID = packID
		if err := s.collections.SavePack(r.Context(), collectionID, &p); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, 200, p)
	case http.MethodDelete:
		if err := s.collections.DeletePack(r.Context(), packID); err != nil {
			http.Error(w, "delete", 500)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "deleted", "id": packID})
	default:
		http.Error(w, "method", 405)
	}
}

// --- export / tooling ---

// adminExportXLSX writes the full catalog as one workbook, a sheet per
// entity, for offline price reviews.
func (s *Server) adminExportXLSX(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	if err := s.products.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.products.Err())
		return
	}
	_ = s.categories.EnsureLoaded(r.Context())

	f := excelize.NewFile()
	defer f.Close()

	const prodSheet = "Products"
	f.SetSheetName(f.GetSheetName(0), prodSheet)
	headers := []string{"ID", "Name", "Category", "Price", "MRP", "Rating", "Reviews", "Sound", "Stock", "Tags"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(prodSheet, cell, h)
	}
	for row, p := range s.products.All() {
		catName := p.CategoryID.Name
		if catName == "" {
			if c, ok := s.categories.Lookup(p.CategoryID.Key()); ok {
				catName = c.Name
			}
		}
		values := []any{p.ID, p.Name, catName, p.Price, p.MRP, p.Rating, p.ReviewCount, string(p.SoundLevel), p.Stock, strings.Join(p.Tags, ",")}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(prodSheet, cell, v)
		}
	}

	const catSheet = "Categories"
	_, _ = f.NewSheet(catSheet)
	for i, h := range []string{"ID", "Name", "Description", "Products"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(catSheet, cell, h)
	}
	for row, c := range s.categories.All() {
		values := []any{c.ID, c.Name, c.Description, s.products.CountByCategory(c.ID)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(catSheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=catalog.xlsx")
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("xlsx export")
	}
}

func (s *Server) adminFindImages(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if s.finder == nil {
		http.Error(w, "finder not configured", 500)
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
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("max"))
	catName := p.CategoryID.Name
	if catName == "" {
		if c, ok := s.categories.Lookup(p.CategoryID.Key()); ok {
			catName = c.Name
		}
	}
	images, err := s.finder.SearchImages(r.Context(), p.Name, catName, maxResults)
	if err != nil {
		log.Warn().Err(err).Str("product", id).Msg("image search")
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "Image search failed"})
		return
	}
	writeJSON(w, 200, map[string]any{"productId": id, "images": images})
}

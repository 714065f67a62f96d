package httpserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
	"github.com/akashffjdn/Crackers-sub000/internal/usecase"
)

type cartItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type cartPayload struct {
	Items []cartItem `json:"items"`
}

func secretKey() []byte {
	k := os.Getenv("SESSION_KEY")
	if k == "" {
		k = "dev-insecure"
	}
	return []byte(k)
}

func readCart(r *http.Request) cartPayload {
	c, err := r.Cookie("cart")
	if err != nil {
		return cartPayload{}
	}
	parts := strings.SplitN(c.Value, ".", 2)
	if len(parts) != 2 {
		return cartPayload{}
	}
	sig, _ := base64.RawURLEncoding.DecodeString(parts[0])
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	h := hmac.New(sha256.New, secretKey())
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return cartPayload{}
	}
	var cp cartPayload
	_ = json.Unmarshal(payload, &cp)
	return cp
}

func writeCart(w http.ResponseWriter, cp cartPayload) {
	b, _ := json.Marshal(cp)
	h := hmac.New(sha256.New, secretKey())
	h.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	val := sig + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{Name: "cart", Value: val, Path: "/", MaxAge: 60 * 60 * 24 * 7, HttpOnly: true})
}

// aggregateCart merges duplicate entries and resolves titles and the current
// unit price against the catalog snapshot. Lines whose product disappeared
// from the catalog are dropped.
func (s *Server) aggregateCart(cp cartPayload) []usecase.CartLine {
	qty := map[string]int{}
	order := []string{}
	for _, it := range cp.Items {
		if it.Qty <= 0 {
			continue
		}
		if _, ok := qty[it.ProductID]; !ok {
			order = append(order, it.ProductID)
		}
		qty[it.ProductID] += it.Qty
	}
	lines := []usecase.CartLine{}
	for _, id := range order {
		p, ok := s.products.Lookup(id)
		if !ok {
			continue
		}
		lines = append(lines, usecase.CartLine{
			ProductID: p.ID,
			Title:     p.Name,
			Qty:       qty[id],
			UnitPrice: p.Price,
		})
	}
	return lines
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		_ = s.products.EnsureLoaded(r.Context())
		lines := s.aggregateCart(readCart(r))
		total := 0.0
		for _, l := range lines {
			total += l.UnitPrice * float64(l.Qty)
		}
		writeJSON(w, 200, map[string]any{"items": lines, "total": total})
	case http.MethodPost:
		var req struct {
			ProductID string `json:"productId"`
			Qty       int    `json:"qty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
			http.Error(w, "json", 400)
			return
		}
		if req.Qty <= 0 {
			req.Qty = 1
		}
		if err := s.products.EnsureLoaded(r.Context()); err != nil {
			writeStoreError(w, s.products.Err())
			return
		}
		p, ok := s.products.Lookup(req.ProductID)
		if !ok {
			http.NotFound(w, r)
			return
		}
		// out-of-stock products never enter the cart
		if !p.InStock() {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "Out of stock"})
			return
		}
		cart := readCart(r)
		cart.Items = append(cart.Items, cartItem{ProductID: p.ID, Qty: req.Qty})
		writeCart(w, cart)
		count := 0
		for _, it := range cart.Items {
			count += it.Qty
		}
		writeJSON(w, 200, map[string]any{"status": "ok", "productId": p.ID, "items": count})
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	var req struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "json", 400)
		return
	}
	cart := readCart(r)
	agg := map[string]int{}
	order := []string{}
	for _, it := range cart.Items {
		if it.Qty <= 0 {
			continue
		}
		if _, ok := agg[it.ProductID]; !ok {
			order = append(order, it.ProductID)
		}
		agg[it.ProductID] += it.Qty
	}
	if _, ok := agg[req.ProductID]; !ok {
		order = append(order, req.ProductID)
	}
	agg[req.ProductID] = req.Qty

	newCart := cartPayload{}
	for _, id := range order {
		if agg[id] <= 0 {
			continue
		}
		newCart.Items = append(newCart.Items, cartItem{ProductID: id, Qty: agg[id]})
	}
	writeCart(w, newCart)
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "json", 400)
		return
	}
	cart := readCart(r)
	kept := []cartItem{}
	for _, it := range cart.Items {
		if it.ProductID != req.ProductID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept
	writeCart(w, cart)
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

var (
	phoneRe  = regexp.MustCompile(`^[0-9+\-\s]{7,15}$`)
	pinRe    = regexp.MustCompile(`^\d{6}$`)
	emailRe  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	flatRate = 99.0
)

func shippingCostFor(total float64) float64 {
	freeAbove := flatRate * 30
	if v := os.Getenv("FREE_SHIPPING_ABOVE"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			freeAbove = n
		}
	}
	if total >= freeAbove {
		return 0
	}
	return flatRate
}

func (s *Server) handleCartCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	var req struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		Phone         string `json:"phone"`
		Address       string `json:"address"`
		PostalCode    string `json:"postalCode"`
		State         string `json:"state"`
		DeliveryNotes string `json:"deliveryNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "json", 400)
		return
	}
	if !emailRe.MatchString(req.Email) || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, 400, map[string]any{"message": "Name and a valid email are required"})
		return
	}
	if req.Phone != "" && !phoneRe.MatchString(req.Phone) {
		writeJSON(w, 400, map[string]any{"message": "Invalid phone number"})
		return
	}
	if req.PostalCode != "" && !pinRe.MatchString(req.PostalCode) {
		writeJSON(w, 400, map[string]any{"message": "Invalid PIN code"})
		return
	}
	if err := s.products.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.products.Err())
		return
	}
	lines := s.aggregateCart(readCart(r))
	if len(lines) == 0 {
		writeJSON(w, 400, map[string]any{"message": "Cart is empty"})
		return
	}
	for _, l := range lines {
		if p, ok := s.products.Lookup(l.ProductID); ok && !p.InStock() {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "Out of stock: " + p.Name})
			return
		}
	}
	itemsTotal := 0.0
	for _, l := range lines {
		itemsTotal += l.UnitPrice * float64(l.Qty)
	}
	shipCost := shippingCostFor(itemsTotal)
	shipMethod := "flat"
	if shipCost == 0 {
		shipMethod = "free"
	}
	o := &domain.Order{
		ID:             uuid.New(),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Name:           strings.TrimSpace(req.Name),
		Phone:          req.Phone,
		Address:        req.Address,
		PostalCode:     req.PostalCode,
		State:          req.State,
		DeliveryNotes:  req.DeliveryNotes,
		ShippingMethod: shipMethod,
		ShippingCost:   shipCost,
	}
	if u := readUserSession(r); u != nil && s.customers != nil {
		if cust, err := s.customers.FindByEmail(r.Context(), u.Email); err == nil {
			o.CustomerID = &cust.ID
		}
	}
	if err := s.orders.CreateFromCart(r.Context(), lines, o); err != nil {
		log.Error().Err(err).Msg("create order")
		writeJSON(w, 500, map[string]any{"message": "Could not place the order"})
		return
	}
	writeCart(w, cartPayload{})
	go func() {
		if sendOrderNotify(o) == nil {
			_ = s.orders.MarkNotified(context.Background(), o.ID)
		}
	}()
	writeJSON(w, 201, map[string]any{"orderId": o.ID, "total": o.Total, "status": o.Status})
}

func sendOrderNotify(o *domain.Order) error {
	err := sendOrderTelegram(o)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msg("telegram notify failed")
	if os.Getenv("SMTP_HOST") != "" {
		return sendOrderEmail(o)
	}
	return err
}

func sendOrderTelegram(o *domain.Order) error {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	rawIDs := os.Getenv("TELEGRAM_CHAT_IDS")
	if strings.TrimSpace(rawIDs) == "" {
		rawIDs = os.Getenv("TELEGRAM_CHAT_ID")
	}
	if token == "" || strings.TrimSpace(rawIDs) == "" {
		return fmt.Errorf("telegram vars missing")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", o.ID)
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n", o.Name, o.Email, o.Phone)
	if o.Address != "" {
		fmt.Fprintf(&b, "Ship to: %s, %s %s\n", o.Address, o.State, o.PostalCode)
	}
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d Rs.%.2f\n", it.Title, it.Qty, it.UnitPrice)
	}
	fmt.Fprintf(&b, "Total: Rs.%.2f (Shipping: Rs.%.2f)\n", o.Total, o.ShippingCost)

	apiURL := "https://api.telegram.org/bot" + token + "/sendMessage"
	var lastErr error
	for _, part := range strings.Split(rawIDs, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		form := url.Values{}
		form.Set("chat_id", id)
		form.Set("text", b.String())
		form.Set("disable_web_page_preview", "1")
		resp, err := http.PostForm(apiURL, form)
		if err != nil {
			lastErr = err
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				body, _ := io.ReadAll(resp.Body)
				lastErr = fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
			}
		}()
	}
	return lastErr
}

func sendOrderEmail(o *domain.Order) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	to := os.Getenv("ORDER_NOTIFY_EMAIL")
	if host == "" || port == "" || user == "" || pass == "" || to == "" {
		log.Warn().Msg("SMTP not configured, skipping order email")
		return nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Subject: New order #%s\r\n", o.ID)
	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\n", user, to)
	buf.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "Order: %s\nName: %s\nEmail: %s\nPhone: %s\n", o.ID, o.Name, o.Email, o.Phone)
	if o.Address != "" {
		fmt.Fprintf(&buf, "Ship to: %s, %s %s\n", o.Address, o.State, o.PostalCode)
	}
	buf.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&buf, "- %s x%d Rs.%.2f\n", it.Title, it.Qty, it.UnitPrice)
	}
	fmt.Fprintf(&buf, "Total: Rs.%.2f (Shipping: Rs.%.2f)\n", o.Total, o.ShippingCost)
	auth := smtp.PlainAuth("", user, pass, host)
	if err := smtp.SendMail(host+":"+port, auth, user, []string{to}, buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("email send")
		return err
	}
	return nil
}

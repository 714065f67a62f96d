package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
	"github.com/akashffjdn/Crackers-sub000/internal/usecase"
)

type fakeCatalog struct {
	categories []domain.Category
	products   []domain.Product
	err        error
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Category{}, f.categories...), nil
}

func (f *fakeCatalog) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if f.err != nil {
		return domain.Category{}, f.err
	}
	c.ID = "srv-cat"
	return c, nil
}

func (f *fakeCatalog) UpdateCategory(ctx context.Context, id string, c domain.Category) (domain.Category, error) {
	if f.err != nil {
		return domain.Category{}, f.err
	}
	c.ID = id
	return c, nil
}

func (f *fakeCatalog) DeleteCategory(ctx context.Context, id string) error { return f.err }

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Product{}, f.products...), nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if f.err != nil {
		return domain.Product{}, f.err
	}
	p.ID = "srv-prod"
	return p, nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, id string, p domain.Product) (domain.Product, error) {
	if f.err != nil {
		return domain.Product{}, f.err
	}
	p.ID = id
	return p, nil
}

func (f *fakeCatalog) DeleteProduct(ctx context.Context, id string) error { return f.err }

type fakeCollectionRepo struct {
	items map[uuid.UUID]*domain.FestivalCollection
}

func newFakeCollectionRepo() *fakeCollectionRepo {
	return &fakeCollectionRepo{items: map[uuid.UUID]*domain.FestivalCollection{}}
}

func (r *fakeCollectionRepo) List(ctx context.Context, activeOnly bool) ([]domain.FestivalCollection, error) {
	out := []domain.FestivalCollection{}
	for _, c := range r.items {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCollectionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.FestivalCollection, error) {
	if c, ok := r.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCollectionRepo) FindBySlug(ctx context.Context, slug string) (*domain.FestivalCollection, error) {
	for _, c := range r.items {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCollectionRepo) Save(ctx context.Context, c *domain.FestivalCollection) error {
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *fakeCollectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *fakeCollectionRepo) SavePack(ctx context.Context, p *domain.ProductPack) error {
	c, ok := r.items[p.CollectionID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range c.CustomPacks {
		if c.CustomPacks[i].ID == p.ID {
			c.CustomPacks[i] = *p
			return nil
		}
	}
	c.CustomPacks = append(c.CustomPacks, *p)
	return nil
}

func (r *fakeCollectionRepo) DeletePack(ctx context.Context, id uuid.UUID) error {
	for _, c := range r.items {
		kept := c.CustomPacks[:0:0]
		for _, p := range c.CustomPacks {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		c.CustomPacks = kept
	}
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo { return &fakeOrderRepo{orders: map[uuid.UUID]*domain.Order{}} }

func (r *fakeOrderRepo) Save(ctx context.Context, o *domain.Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeOrderRepo) List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]domain.Order, int64, error) {
	out := []domain.Order{}
	for _, o := range r.orders {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) ListInRange(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range r.orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

type testEnv struct {
	api     *fakeCatalog
	cols    *fakeCollectionRepo
	orders  *fakeOrderRepo
	handler http.Handler
}

func newTestEnv(t *testing.T, api *fakeCatalog) *testEnv {
	t.Helper()
	t.Setenv("ADMIN_API_KEY", "test-key")
	t.Setenv("ADMIN_ALLOWED_EMAILS", "ops@example.com")
	t.Setenv("JWT_ADMIN_SECRET", "test-secret")
	t.Setenv("SESSION_KEY", "test-session")

	prods := usecase.NewProductStore(api)
	cats := usecase.NewCategoryStore(api)
	cols := newFakeCollectionRepo()
	orders := newFakeOrderRepo()
	colUC := &usecase.CollectionUC{Collections: cols, Products: prods}
	orderUC := &usecase.OrderUC{Orders: orders, Products: prods}
	h := New(cats, prods, colUC, orderUC, nil, nil, nil)
	return &testEnv{api: api, cols: cols, orders: orders, handler: h}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"ops@example.com"}`))
	req.Header.Set("X-Admin-Key", "test-key")
	rec := e.do(t, req)
	if rec.Code != 200 {
		t.Fatalf("admin login: %d %s", rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body, err)
	}
	return v
}

func TestAPIProductsFilterAndSort(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{
		{ID: "p1", Name: "Golden Sparkler", Price: 50, SoundLevel: domain.SoundLow, Stock: 10},
		{ID: "p2", Name: "Thunder King", Price: 250, SoundLevel: domain.SoundHigh, Stock: 5},
		{ID: "p3", Name: "Color Fountain", Price: 150, SoundLevel: domain.SoundLow, Stock: 0},
	}})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/products?sound_level=Low&sort=price-high-low", nil))
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeBody[struct {
		Products []domain.Product `json:"products"`
		Total    int              `json:"total"`
	}](t, rec)
	if resp.Total != 2 || len(resp.Products) != 2 {
		t.Fatalf("total = %d, products = %d", resp.Total, len(resp.Products))
	}
	if resp.Products[0].ID != "p3" || resp.Products[1].ID != "p1" {
		t.Errorf("order: %s, %s", resp.Products[0].ID, resp.Products[1].ID)
	}
}

func TestAPIProductsBackendFailure(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{err: errors.New("No products found")})
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeBody[map[string]string](t, rec)
	if resp["message"] != "No products found" {
		t.Errorf("message = %q", resp["message"])
	}
}

func TestAPICategoriesWithProductCount(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{
		categories: []domain.Category{{ID: "c1", Name: "Sparklers"}, {ID: "c2", Name: "Rockets"}},
		products: []domain.Product{
			{ID: "p1", CategoryID: domain.CategoryRef{ID: "c1"}},
			{ID: "p2", CategoryID: domain.CategoryRef{ID: "c1", Name: "Sparklers"}},
		},
	})
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	cats := decodeBody[[]domain.Category](t, rec)
	if len(cats) != 2 {
		t.Fatalf("got %d categories", len(cats))
	}
	if cats[0].ProductCount != 2 || cats[1].ProductCount != 0 {
		t.Errorf("counts = %d, %d", cats[0].ProductCount, cats[1].ProductCount)
	}
}

func TestCartRejectsOutOfStock(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{
		{ID: "p1", Name: "Sold Out", Price: 100, Stock: 0},
	}})
	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"productId":"p1"}`))
	rec := env.do(t, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
}

func TestCartRoundTrip(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{
		{ID: "p1", Name: "Golden Sparkler", Price: 50, Stock: 10},
	}})

	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"productId":"p1","qty":2}`))
	rec := env.do(t, req)
	if rec.Code != 200 {
		t.Fatalf("add status %d: %s", rec.Code, rec.Body)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no cart cookie set")
	}

	get := httptest.NewRequest(http.MethodGet, "/cart", nil)
	for _, c := range cookies {
		get.AddCookie(c)
	}
	rec = env.do(t, get)
	resp := decodeBody[struct {
		Items []usecase.CartLine `json:"items"`
		Total float64            `json:"total"`
	}](t, rec)
	if len(resp.Items) != 1 || resp.Items[0].Qty != 2 {
		t.Fatalf("items = %+v", resp.Items)
	}
	if resp.Total != 100 {
		t.Errorf("total = %v", resp.Total)
	}
}

func TestCartIgnoresTamperedCookie(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{
		{ID: "p1", Name: "Golden Sparkler", Price: 50, Stock: 10},
	}})
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "bogus.payload"})
	rec := env.do(t, req)
	resp := decodeBody[struct {
		Items []usecase.CartLine `json:"items"`
	}](t, rec)
	if len(resp.Items) != 0 {
		t.Errorf("tampered cookie produced items: %+v", resp.Items)
	}
}

func TestCheckoutCreatesOrder(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{
		{ID: "p1", Name: "Golden Sparkler", Price: 50, Stock: 10},
	}})

	add := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"productId":"p1","qty":3}`))
	rec := env.do(t, add)
	cookies := rec.Result().Cookies()

	body := `{"email":"buyer@example.com","name":"Buyer","phone":"9876543210","postalCode":"600001"}`
	checkout := httptest.NewRequest(http.MethodPost, "/cart/checkout", strings.NewReader(body))
	for _, c := range cookies {
		checkout.AddCookie(c)
	}
	rec = env.do(t, checkout)
	if rec.Code != 201 {
		t.Fatalf("checkout status %d: %s", rec.Code, rec.Body)
	}
	if len(env.orders.orders) != 1 {
		t.Fatalf("orders persisted = %d", len(env.orders.orders))
	}
	for _, o := range env.orders.orders {
		if o.Status != domain.OrderStatusAwaitingPay {
			t.Errorf("status = %s", o.Status)
		}
		if len(o.Items) != 1 || o.Items[0].Qty != 3 {
			t.Errorf("items = %+v", o.Items)
		}
		if o.Total != 150+o.ShippingCost {
			t.Errorf("total = %v, shipping = %v", o.Total, o.ShippingCost)
		}
		if o.ShippingMethod != "flat" {
			t.Errorf("shipping method = %q", o.ShippingMethod)
		}
	}
}

func TestCollectionEndpointResolvesProductsAndSavings(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{
		{ID: "SP001", Name: "Golden Sparkler", Price: 50, Tags: []string{"diwali"}, Stock: 5},
		{ID: "GC001", Name: "Green Chakkar", Price: 80, Tags: []string{"diwali"}, Stock: 5},
	}})
	packID := uuid.New()
	colID := uuid.New()
	_ = env.cols.Save(context.Background(), &domain.FestivalCollection{
		ID: colID, Title: "Diwali Special", Slug: "diwali-special", IsActive: true,
		AssignedProducts: []string{"GC001"}, Tags: []string{"diwali"}, ShowAllTaggedProducts: true,
		CustomPacks: []domain.ProductPack{{
			ID: packID, CollectionID: colID, Name: "Family Pack", Price: 100, IsActive: true,
			Items: []domain.PackItem{{ProductID: "SP001", Quantity: 2}, {ProductID: "GC001", Quantity: 1}},
		}},
	})

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/collections/diwali-special", nil))
	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	resp := decodeBody[struct {
		Products []domain.Product `json:"products"`
		Packs    []struct {
			Savings float64 `json:"savings"`
		} `json:"packs"`
	}](t, rec)
	if len(resp.Products) != 2 || resp.Products[0].ID != "GC001" {
		t.Errorf("resolved products: %+v", resp.Products)
	}
	if len(resp.Packs) != 1 || resp.Packs[0].Savings != 80 {
		t.Errorf("packs: %+v", resp.Packs)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/collections/diwali-special/packs/"+packID.String(), nil))
	if rec.Code != 200 {
		t.Fatalf("pack status %d", rec.Code)
	}
}

func TestInactiveCollectionHidden(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	_ = env.cols.Save(context.Background(), &domain.FestivalCollection{
		ID: uuid.New(), Title: "Drafts", Slug: "drafts", IsActive: false,
	})
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/collections/drafts", nil))
	if rec.Code != 404 {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	for _, path := range []string{"/api/admin/products", "/api/admin/collections", "/api/admin/orders"} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != 401 {
			t.Errorf("%s: status %d, want 401", path, rec.Code)
		}
	}
}

func TestAdminLoginRejectsBadKey(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{}`))
	req.Header.Set("X-Admin-Key", "wrong")
	rec := env.do(t, req)
	if rec.Code != 401 {
		t.Errorf("status %d, want 401", rec.Code)
	}
}

func TestAdminProductCreateReconcilesStore(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{products: []domain.Product{{ID: "a", Name: "Existing"}}})
	tok := env.adminToken(t)

	// load the store before mutating, as the console does
	env.do(t, cloneAuthed(http.MethodGet, "/api/admin/products", tok))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(`{"name":"Thunder King","price":250}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(t, req)
	if rec.Code != 201 {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body)
	}

	list := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	list.Header.Set("Authorization", "Bearer "+tok)
	rec = env.do(t, list)
	resp := decodeBody[struct {
		Items []domain.Product `json:"items"`
	}](t, rec)
	if len(resp.Items) != 2 || resp.Items[0].ID != "srv-prod" {
		t.Errorf("store not reconciled, items = %+v", resp.Items)
	}
}

func TestAdminProductMutationFailureLeavesStore(t *testing.T) {
	api := &fakeCatalog{products: []domain.Product{{ID: "a", Name: "Existing"}}}
	env := newTestEnv(t, api)
	tok := env.adminToken(t)

	// load the store first, then make the backend fail
	warm := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	warm.Header.Set("Authorization", "Bearer "+tok)
	env.do(t, warm)
	api.err = errors.New("Product name already exists")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(`{"name":"Existing","price":10}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(t, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeBody[map[string]string](t, rec)
	if resp["message"] != "Product name already exists" {
		t.Errorf("message = %q", resp["message"])
	}

	api.err = nil
	rec = env.do(t, cloneAuthed(http.MethodGet, "/api/admin/products", tok))
	listResp := decodeBody[struct {
		Items []domain.Product `json:"items"`
	}](t, rec)
	if len(listResp.Items) != 1 || listResp.Items[0].ID != "a" {
		t.Errorf("failed create touched the store: %+v", listResp.Items)
	}
}

func cloneAuthed(method, path, tok string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestAdminCollectionCRUD(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	tok := env.adminToken(t)

	create := httptest.NewRequest(http.MethodPost, "/api/admin/collections", strings.NewReader(`{"title":"Diwali Special","isActive":true,"tags":["diwali"]}`))
	create.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(t, create)
	if rec.Code != 201 {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body)
	}
	created := decodeBody[domain.FestivalCollection](t, rec)
	if created.Slug != "diwali-special" {
		t.Errorf("slug = %q", created.Slug)
	}

	del := cloneAuthed(http.MethodDelete, "/api/admin/collections/"+created.ID.String(), tok)
	rec = env.do(t, del)
	if rec.Code != 200 {
		t.Fatalf("delete status %d", rec.Code)
	}
	if _, err := env.cols.FindByID(context.Background(), created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("collection still present after delete")
	}
}

func TestAdminOrderStatusUpdate(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	tok := env.adminToken(t)
	id := uuid.New()
	_ = env.orders.Save(context.Background(), &domain.Order{ID: id, Status: domain.OrderStatusAwaitingPay})

	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+id.String(), strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(t, req)
	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	o, _ := env.orders.FindByID(context.Background(), id)
	if o.Status != domain.OrderStatusShipped {
		t.Errorf("order status = %s", o.Status)
	}

	bad := httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+id.String(), strings.NewReader(`{"status":"teleported"}`))
	bad.Header.Set("Authorization", "Bearer "+tok)
	rec = env.do(t, bad)
	if rec.Code != 400 {
		t.Errorf("bogus status accepted: %d", rec.Code)
	}
}

// Console logins must not mutate server state: with no allow-list configured
// the fallback identity is resolved at construction, so concurrent logins only
// read the allowed map.
func TestAdminAuthConcurrentLogins(t *testing.T) {
	t.Setenv("ADMIN_ALLOWED_EMAILS", "")
	t.Setenv("ADMIN_USER", "root")
	t.Setenv("ADMIN_PASS", "hunter2")
	t.Setenv("JWT_ADMIN_SECRET", "test-secret")

	api := &fakeCatalog{}
	prods := usecase.NewProductStore(api)
	cats := usecase.NewCategoryStore(api)
	colUC := &usecase.CollectionUC{Collections: newFakeCollectionRepo(), Products: prods}
	orderUC := &usecase.OrderUC{Orders: newFakeOrderRepo(), Products: prods}
	h := New(cats, prods, colUC, orderUC, nil, nil, nil)

	login := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/auth", strings.NewReader(`{"user":"root","pass":"hunter2"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	var wg sync.WaitGroup
	codes := make([]int, 10)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = login().Code
		}(i)
	}
	wg.Wait()
	for i, code := range codes {
		if code != 200 {
			t.Fatalf("login %d: status %d", i, code)
		}
	}

	// the cookie from a login must pass admin verification
	rec := login()
	admin := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	for _, c := range rec.Result().Cookies() {
		admin.AddCookie(c)
	}
	out := httptest.NewRecorder()
	h.ServeHTTP(out, admin)
	if out.Code == 401 {
		t.Fatal("console cookie rejected")
	}
}

func TestAdminOrdersReport(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	tok := env.adminToken(t)

	day := func(d string) time.Time {
		ts, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatal(err)
		}
		return ts
	}
	_ = env.orders.Save(context.Background(), &domain.Order{
		ID: uuid.New(), Status: domain.OrderStatusDelivered, Total: 300, CreatedAt: day("2026-08-10"),
		Items: []domain.OrderItem{{ID: uuid.New(), ProductID: "p1", Qty: 2}},
	})
	_ = env.orders.Save(context.Background(), &domain.Order{
		ID: uuid.New(), Status: domain.OrderStatusCancelled, Total: 500, CreatedAt: day("2026-08-12"),
		Items: []domain.OrderItem{{ID: uuid.New(), ProductID: "p1", Qty: 9}},
	})
	_ = env.orders.Save(context.Background(), &domain.Order{
		ID: uuid.New(), Status: domain.OrderStatusDelivered, Total: 100, CreatedAt: day("2026-09-20"),
	})

	rec := env.do(t, cloneAuthed(http.MethodGet, "/api/admin/orders/report?from=2026-08-01&to=2026-08-31", tok))
	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	rep := decodeBody[usecase.OrderReport](t, rec)
	if rep.Orders != 2 {
		t.Errorf("orders = %d", rep.Orders)
	}
	if rep.Revenue != 300 {
		t.Errorf("revenue = %v, cancelled orders must not count", rep.Revenue)
	}
	if rep.UnitsByProduct["p1"] != 2 {
		t.Errorf("units = %v", rep.UnitsByProduct)
	}
	if rep.ByStatus[domain.OrderStatusCancelled] != 1 {
		t.Errorf("byStatus = %v", rep.ByStatus)
	}

	rec = env.do(t, cloneAuthed(http.MethodGet, "/api/admin/orders/report?from=bogus", tok))
	if rec.Code != 400 {
		t.Errorf("bad from accepted: %d", rec.Code)
	}
}

func TestAdminCollectionUpdateRejectsDuplicateSlug(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{})
	tok := env.adminToken(t)

	first := &domain.FestivalCollection{ID: uuid.New(), Title: "Diwali Special", Slug: "diwali-special", IsActive: true}
	second := &domain.FestivalCollection{ID: uuid.New(), Title: "New Year Blast", Slug: "new-year-blast", IsActive: true}
	_ = env.cols.Save(context.Background(), first)
	_ = env.cols.Save(context.Background(), second)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/collections/"+second.ID.String(),
		strings.NewReader(`{"title":"New Year Blast","slug":"diwali-special"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := env.do(t, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	resp := decodeBody[map[string]string](t, rec)
	if resp["message"] == "" {
		t.Error("conflict response carries no message")
	}
	if got, _ := env.cols.FindByID(context.Background(), second.ID); got.Slug != "new-year-blast" {
		t.Errorf("slug overwritten to %q", got.Slug)
	}

	// keeping your own slug is not a conflict
	keep := httptest.NewRequest(http.MethodPut, "/api/admin/collections/"+second.ID.String(),
		strings.NewReader(`{"title":"New Year Blast","slug":"new-year-blast","isActive":true}`))
	keep.Header.Set("Authorization", "Bearer "+tok)
	rec = env.do(t, keep)
	if rec.Code != 200 {
		t.Errorf("self-slug update status %d: %s", rec.Code, rec.Body)
	}
}

func TestAdminRefreshRetriesFailedLoad(t *testing.T) {
	api := &fakeCatalog{err: errors.New("down")}
	env := newTestEnv(t, api)
	tok := env.adminToken(t)

	rec := env.do(t, func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		return r
	}())
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}

	api.err = nil
	api.products = []domain.Product{{ID: "p1"}}
	rec = env.do(t, func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		return r
	}())
	if rec.Code != 200 {
		t.Fatalf("retry status %d: %s", rec.Code, rec.Body)
	}
	resp := decodeBody[map[string]any](t, rec)
	if resp["products"].(float64) != 1 {
		t.Errorf("products after retry = %v", resp["products"])
	}
}

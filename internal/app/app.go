package app

import (
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/akashffjdn/Crackers-sub000/internal/adapters/catalogapi"
	"github.com/akashffjdn/Crackers-sub000/internal/adapters/httpserver"
	"github.com/akashffjdn/Crackers-sub000/internal/adapters/repo/postgres"
	"github.com/akashffjdn/Crackers-sub000/internal/adapters/scraper"
	"github.com/akashffjdn/Crackers-sub000/internal/domain"
	"github.com/akashffjdn/Crackers-sub000/internal/usecase"
)

type App struct {
	DB           *gorm.DB
	Categories   *usecase.CategoryStore
	Products     *usecase.ProductStore
	CollectionUC *usecase.CollectionUC
	OrderUC      *usecase.OrderUC
	Customers    domain.CustomerRepo
	Finder       *scraper.ImageFinder
	OAuthConfig  *oauth2.Config
}

func NewApp(db *gorm.DB) (*App, error) {
	backendURL := os.Getenv("CATALOG_API_URL")
	if backendURL == "" {
		backendURL = "http://localhost:5000/api"
	}
	catalog := catalogapi.New(backendURL)

	categories := usecase.NewCategoryStore(catalog)
	products := usecase.NewProductStore(catalog)

	colRepo := postgres.NewCollectionRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	custRepo := postgres.NewCustomerRepo(db)

	var oauthCfg *oauth2.Config
	googleID := os.Getenv("GOOGLE_CLIENT_ID")
	googleSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if googleID != "" && googleSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     googleID,
			ClientSecret: googleSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return &App{
		DB:           db,
		Categories:   categories,
		Products:     products,
		CollectionUC: &usecase.CollectionUC{Collections: colRepo, Products: products},
		OrderUC:      &usecase.OrderUC{Orders: orderRepo, Products: products},
		Customers:    custRepo,
		Finder:       scraper.NewImageFinder(),
		OAuthConfig:  oauthCfg,
	}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Categories, a.Products, a.CollectionUC, a.OrderUC, a.Customers, a.Finder, a.OAuthConfig)
}

func (a *App) Migrate() error {
	if err := a.DB.AutoMigrate(
		&domain.FestivalCollection{}, &domain.ProductPack{},
		&domain.Order{}, &domain.OrderItem{}, &domain.Customer{},
	); err != nil {
		return err
	}

	_ = a.DB.Exec("ALTER TABLE orders ADD COLUMN IF NOT EXISTS delivery_notes TEXT").Error
	_ = a.DB.Exec("ALTER TABLE orders ADD COLUMN IF NOT EXISTS customer_id UUID").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_collections_slug ON festival_collections(slug)").Error

	return nil
}

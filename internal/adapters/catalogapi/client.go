// Package catalogapi is the thin HTTP client for the upstream catalog
// backend. Every record it returns is normalized: the backend's _id becomes
// ID, and the products list is unwrapped from its pagination envelope when
// the endpoint uses one.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

// ErrInvalidFormat is surfaced when the backend answers with a shape this
// client does not recognize. The wording is part of the store contract and
// shown to users as-is.
var ErrInvalidFormat = errors.New("Invalid data format received")

const genericErrMsg = "Something went wrong"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// categoryDoc and productDoc carry the wire-side _id next to the canonical
// fields; normalize() folds it in.
type categoryDoc struct {
	domain.Category
	OID string `json:"_id"`
}

func (d categoryDoc) normalize() domain.Category {
	c := d.Category
	if d.OID != "" {
		c.ID = d.OID
	}
	return c
}

type productDoc struct {
	domain.Product
	OID string `json:"_id"`
}

func (d productDoc) normalize() domain.Product {
	p := d.Product
	if d.OID != "" {
		p.ID = d.OID
	}
	return p
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := c.do(ctx, http.MethodGet, "/categories", nil)
	if err != nil {
		return nil, err
	}
	var docs []categoryDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, ErrInvalidFormat
	}
	out := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.normalize())
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, cat domain.Category) (domain.Category, error) {
	body, err := c.do(ctx, http.MethodPost, "/categories", cat)
	if err != nil {
		return domain.Category{}, err
	}
	return decodeCategory(body)
}

func (c *Client) UpdateCategory(ctx context.Context, id string, cat domain.Category) (domain.Category, error) {
	body, err := c.do(ctx, http.MethodPut, "/categories/"+id, cat)
	if err != nil {
		return domain.Category{}, err
	}
	return decodeCategory(body)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/categories/"+id, nil)
	return err
}

// ListProducts tolerates both response shapes the backend is known to use:
// a bare array, or a {"products": [...]} pagination envelope.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	body, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := json.Unmarshal(body, &docs); err == nil {
		return normalizeProducts(docs), nil
	}
	var envelope struct {
		Products []productDoc `json:"products"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Products != nil {
		return normalizeProducts(envelope.Products), nil
	}
	return nil, ErrInvalidFormat
}

func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	body, err := c.do(ctx, http.MethodPost, "/products", p)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(body)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, p domain.Product) (domain.Product, error) {
	body, err := c.do(ctx, http.MethodPut, "/products/"+id, p)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(body)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/products/"+id, nil)
	return err
}

func normalizeProducts(docs []productDoc) []domain.Product {
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.normalize())
	}
	return out
}

func decodeCategory(body []byte) (domain.Category, error) {
	var d categoryDoc
	if err := json.Unmarshal(body, &d); err != nil {
		return domain.Category{}, ErrInvalidFormat
	}
	return d.normalize(), nil
}

func decodeProduct(body []byte) (domain.Product, error) {
	var d productDoc
	if err := json.Unmarshal(body, &d); err != nil {
		return domain.Product{}, ErrInvalidFormat
	}
	return d.normalize(), nil
}

// do runs one request/response cycle. Non-2xx responses become errors
// carrying the backend's {"message": ...} verbatim when present.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog backend unreachable: %w", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, errors.New(apiErr.Message)
		}
		return nil, errors.New(genericErrMsg)
	}
	return body, nil
}

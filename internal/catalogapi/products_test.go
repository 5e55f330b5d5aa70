package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/talkincode/catalogd/config"
	"github.com/talkincode/catalogd/internal/app"
	"github.com/talkincode/catalogd/internal/catalog"
	"github.com/talkincode/catalogd/internal/domain"
	"github.com/talkincode/catalogd/internal/storage"
	"github.com/talkincode/catalogd/internal/webserver"
)

var _ app.AppContext = (*testAppCtx)(nil)

// testAppCtx satisfies app.AppContext with just enough wiring for the
// handlers under test.
type testAppCtx struct {
	svc   *catalog.Service
	store storage.ObjectStore
}

func (a *testAppCtx) DB() *gorm.DB { return nil }

func (a *testAppCtx) Config() *config.AppConfig { return &config.DefaultAppConfig }

func (a *testAppCtx) Catalog() *catalog.Service { return a.svc }

func (a *testAppCtx) ObjectStore() storage.ObjectStore { return a.store }

func (a *testAppCtx) Scheduler() *cron.Cron { return nil }

func (a *testAppCtx) Bus() EventBus.Bus { return nil }

func (a *testAppCtx) MigrateDB(track bool) error { return nil }

func (a *testAppCtx) InitDb() {}

func (a *testAppCtx) DropAll() {}

type memRepo struct {
	mu   sync.Mutex
	rows map[int64]*domain.Product
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*domain.Product{}}
}

func (r *memRepo) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) sorted(filter func(*domain.Product) bool) []domain.Product {
	var out []domain.Product
	for _, p := range r.rows {
		if filter == nil || filter(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) ListAvailable(ctx context.Context, offset, limit int) ([]domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(p *domain.Product) bool { return p.Quantity > 0 })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memRepo) All(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(nil), nil
}

func (r *memRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return 0, nil
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		p.Description = v.(string)
	}
	if v, ok := fields["type"]; ok {
		p.Type = v.(string)
	}
	if v, ok := fields["price"]; ok {
		p.Price = v.(float64)
	}
	if v, ok := fields["quantity"]; ok {
		p.Quantity = v.(int)
	}
	if v, ok := fields["image_url"]; ok {
		p.ImageURL = v.(*string)
	}
	if v, ok := fields["updated_at"]; ok {
		p.UpdatedAt = v.(time.Time)
	}
	return 1, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memRepo) ImageURLs(ctx context.Context) ([]string, error) {
	return nil, nil
}

type memStore struct{}

func (memStore) PutObject(ctx context.Context, bucket, object string, body io.Reader, contentType string) error {
	_, _ = io.Copy(io.Discard, body)
	return nil
}

func (memStore) DeleteObject(ctx context.Context, bucket, object string) error { return nil }

func (memStore) ListObjects(ctx context.Context, bucket string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (memStore) PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://cdn.example.com/%s/%s", bucket, object)
}

type testEnv struct {
	e    *echo.Echo
	repo *memRepo
	ctx  *testAppCtx
}

func newTestEnv() *testEnv {
	repo := newMemRepo()
	store := memStore{}
	svc := catalog.NewService(repo, store, nil, "products")
	return &testEnv{
		e:    echo.New(),
		repo: repo,
		ctx:  &testAppCtx{svc: svc, store: store},
	}
}

func (env *testEnv) newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	c.Set(webserver.ContextAppKey, env.ctx)
	return c, rec
}

type envelope struct {
	Status     bool            `json:"status"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Page       int             `json:"page"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
	Product    *domain.Product `json:"product"`
	Data       json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func multipartProduct(t *testing.T, fields map[string]string, imageName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func seedMemRepo(repo *memRepo, n, quantity int) {
	for i := 1; i <= n; i++ {
		repo.rows[int64(i)] = &domain.Product{
			ID:       int64(i),
			Name:     fmt.Sprintf("product-%d", i),
			Price:    float64(i),
			Quantity: quantity,
		}
	}
}

func TestCreateProductHandler(t *testing.T) {
	env := newTestEnv()
	body, contentType := multipartProduct(t, map[string]string{
		"name":        "widget",
		"description": "a widget",
		"type":        "consumable",
		"price":       "9.99",
		"quantity":    "5",
	}, "")

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, rec := env.newContext(req)

	require.NoError(t, createProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Status)
	assert.Equal(t, "Product created successfully", resp.Message)
	require.NotNil(t, resp.Product)
	assert.Equal(t, "widget", resp.Product.Name)
	assert.Nil(t, resp.Product.ImageURL)
}

func TestCreateProductHandlerWithImage(t *testing.T) {
	env := newTestEnv()
	body, contentType := multipartProduct(t, map[string]string{
		"name":     "widget",
		"price":    "9.99",
		"quantity": "5",
	}, "photo.png")

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, rec := env.newContext(req)

	require.NoError(t, createProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Product)
	require.NotNil(t, resp.Product.ImageURL)
	assert.Contains(t, *resp.Product.ImageURL, "https://cdn.example.com/products/")
	assert.Contains(t, *resp.Product.ImageURL, "photo.png")
}

func TestCreateProductHandlerMissingName(t *testing.T) {
	env := newTestEnv()
	body, contentType := multipartProduct(t, map[string]string{
		"price":    "9.99",
		"quantity": "5",
	}, "")

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	c, rec := env.newContext(req)

	require.NoError(t, createProduct(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Status)
}

func TestListProductsHandlerDefaultPage(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 20, 3)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	c, rec := env.newContext(req)

	require.NoError(t, listProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Status)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, int64(20), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)

	var data []domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Len(t, data, 9)
}

func TestListProductsHandlerLastPage(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 20, 3)

	req := httptest.NewRequest(http.MethodGet, "/products?"+url.Values{"page": {"3"}}.Encode(), nil)
	c, rec := env.newContext(req)

	require.NoError(t, listProducts(c))
	resp := decodeEnvelope(t, rec)

	var data []domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Len(t, data, 2)
}

func TestGetProductHandlerNotFound(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/products/12345", nil)
	c, rec := env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("12345")

	require.NoError(t, getProduct(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Status)
	assert.Equal(t, "Product not found", resp.Message)
}

func TestGetProductHandler(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 1, 5)

	req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
	c, rec := env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, getProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	var p domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, int64(1), p.ID)
}

func TestUpdateProductHandler(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 1, 5)

	payload := `{"name":"renamed","description":"d","type":"gadget","price":19.5,"quantity":7,"image_url":"https://cdn.example.com/products/1.png"}`
	req := httptest.NewRequest(http.MethodPut, "/products/1", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, updateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "Product updated successfully", resp.Message)

	var data []domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data, 1)
	assert.Equal(t, "renamed", data[0].Name)
	assert.Equal(t, 7, data[0].Quantity)
}

func TestDeleteProductHandler(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 1, 5)

	req := httptest.NewRequest(http.MethodDelete, "/products/1", nil)
	c, rec := env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, deleteProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product deleted successfully", decodeEnvelope(t, rec).Message)

	// delete of a now missing id still succeeds
	req = httptest.NewRequest(http.MethodDelete, "/products/1", nil)
	c, rec = env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, deleteProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateQuantityHandlerMissingQuantity(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 1, 5)

	req := httptest.NewRequest(http.MethodPatch, "/products/1/quantity", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, updateProductQuantity(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity is required", decodeEnvelope(t, rec).Message)
}

func TestUpdateQuantityHandlerZero(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 1, 5)

	req := httptest.NewRequest(http.MethodPatch, "/products/1/quantity", strings.NewReader(`{"quantity":0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := env.newContext(req)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, updateProductQuantity(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "Quantity updated successfully", resp.Message)
	require.NotNil(t, resp.Product)
	assert.Equal(t, 0, resp.Product.Quantity)
}

func TestExportProductsHandler(t *testing.T) {
	env := newTestEnv()
	seedMemRepo(env.repo, 2, 5)

	req := httptest.NewRequest(http.MethodGet, "/products/export", nil)
	c, rec := env.newContext(req)

	require.NoError(t, exportProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "name")
	assert.Contains(t, body, "product-1")
	assert.Contains(t, body, "product-2")
}

func TestImportProductsHandler(t *testing.T) {
	env := newTestEnv()

	csv := "id,name,description,type,price,quantity,image_url\n0,imported-a,,consumable,3.5,4,\n0,imported-b,,service,8,1,\n"
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/import", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	c, rec := env.newContext(req)

	require.NoError(t, importProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := env.repo.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/product-proxy/internal/product"
	"github.com/Checker-Finance/product-proxy/internal/upstream"
	"github.com/Checker-Finance/product-proxy/pkg/model"
)

// ─── Mock service ─────────────────────────────────────────────────────────────

type mockProductService struct {
	listFn   func(ctx context.Context) (iter.Seq[model.Product], error)
	createFn func(ctx context.Context, d product.Draft) error
	updateFn func(ctx context.Context, id string, d product.Draft) error
	deleteFn func(ctx context.Context, id string) error
	calls    int
}

func (m *mockProductService) List(ctx context.Context) (iter.Seq[model.Product], error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockProductService) Create(ctx context.Context, d product.Draft) error {
	m.calls++
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockProductService) Update(ctx context.Context, id string, d product.Draft) error {
	m.calls++
	if m.updateFn != nil {
		return m.updateFn(ctx, id, d)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockProductService) Delete(ctx context.Context, id string) error {
	m.calls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return fmt.Errorf("not implemented")
}

// ─── Recording flash ──────────────────────────────────────────────────────────

type recordingFlash struct {
	put     []Flash
	pending Flash
}

func (r *recordingFlash) Put(_ *fiber.Ctx, f Flash) error {
	r.put = append(r.put, f)
	return nil
}

func (r *recordingFlash) Pull(_ *fiber.Ctx) (Flash, error) {
	f := r.pending
	r.pending = Flash{}
	return f, nil
}

func (r *recordingFlash) last() Flash {
	if len(r.put) == 0 {
		return Flash{}
	}
	return r.put[len(r.put)-1]
}

// ─── Test app helpers ─────────────────────────────────────────────────────────

func newTestApp(svc ProductService, flash FlashStore) *fiber.App {
	app := fiber.New()
	handler := NewProductHandler(zap.NewNop(), svc, flash, NewPageRenderer("test"))
	registerProductRoutes(app, handler)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req, _ := http.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, values url.Values) *http.Request {
	req, _ := http.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodePage(t *testing.T, resp *http.Response) Page {
	t.Helper()
	raw, _ := io.ReadAll(resp.Body)
	var page Page
	require.NoError(t, json.Unmarshal(raw, &page))
	return page
}

func seqOf(products ...model.Product) iter.Seq[model.Product] {
	return slices.Values(products)
}

// ─── Index ────────────────────────────────────────────────────────────────────

func TestIndex_RendersProducts(t *testing.T) {
	svc := &mockProductService{listFn: func(context.Context) (iter.Seq[model.Product], error) {
		return seqOf(
			model.Product{ID: 2, Nombre: "Sierra", Precio: json.Number("30.5")},
			model.Product{ID: 1, Nombre: "Martillo", Precio: json.Number("12")},
		), nil
	}}
	flash := &recordingFlash{pending: successFlash(product.MsgCreated)}
	app := newTestApp(svc, flash)

	req, _ := http.NewRequest(http.MethodGet, "/products", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	page := decodePage(t, resp)
	assert.Equal(t, "Products/index", page.Component)
	assert.Equal(t, "/products", page.URL)
	assert.Equal(t, "test", page.Version)

	products, _ := json.Marshal(page.Props["products"])
	assert.JSONEq(t, `[{"id":2,"nombre":"Sierra","precio":30.5},{"id":1,"nombre":"Martillo","precio":12}]`, string(products))
	assert.Equal(t, map[string]any{"success": product.MsgCreated}, page.Props["flash"])
}

func TestIndex_EmptyListIsArray(t *testing.T) {
	svc := &mockProductService{listFn: func(context.Context) (iter.Seq[model.Product], error) {
		return seqOf(), nil
	}}
	app := newTestApp(svc, &recordingFlash{})

	req, _ := http.NewRequest(http.MethodGet, "/products", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	page := decodePage(t, resp)
	assert.Equal(t, []any{}, page.Props["products"])
	assert.Equal(t, map[string]any{}, page.Props["errors"])
}

func TestIndex_FailureRedirectsBack(t *testing.T) {
	svc := &mockProductService{listFn: func(context.Context) (iter.Seq[model.Product], error) {
		return nil, &upstream.Error{Op: "list", Err: errors.New("connection refused")}
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	req, _ := http.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Referer", "http://localhost/dashboard")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "http://localhost/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, errorFlash(product.MsgListFailed), flash.last())
}

func TestIndex_FailureWithoutRefererGoesHome(t *testing.T) {
	svc := &mockProductService{listFn: func(context.Context) (iter.Seq[model.Product], error) {
		return nil, errors.New("boom")
	}}
	app := newTestApp(svc, &recordingFlash{})

	req, _ := http.NewRequest(http.MethodGet, "/products", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestIndex_FailureFromListItselfGoesHome(t *testing.T) {
	svc := &mockProductService{listFn: func(context.Context) (iter.Seq[model.Product], error) {
		return nil, &upstream.Error{Op: "list", Status: 502}
	}}

	for _, referer := range []string{"http://localhost/products", "http://localhost/products/", "/products?page=2"} {
		flash := &recordingFlash{}
		app := newTestApp(svc, flash)

		req, _ := http.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Referer", referer)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, referer)
		assert.Equal(t, "/", resp.Header.Get("Location"), referer)
		assert.Equal(t, errorFlash(product.MsgListFailed), flash.last())
	}
}

// ─── Store ────────────────────────────────────────────────────────────────────

func TestStore_JSONSuccess(t *testing.T) {
	var got product.Draft
	svc := &mockProductService{createFn: func(_ context.Context, d product.Draft) error {
		got = d
		return nil
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", `{"nombre":"Widget","precio":"9.99"}`), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))
	assert.Equal(t, "Widget", got.Nombre)
	assert.Equal(t, "9.99", got.Precio.String())
	assert.Equal(t, successFlash(product.MsgCreated), flash.last())
}

func TestStore_FormSuccess(t *testing.T) {
	var got product.Draft
	svc := &mockProductService{createFn: func(_ context.Context, d product.Draft) error {
		got = d
		return nil
	}}
	app := newTestApp(svc, &recordingFlash{})

	resp, err := app.Test(formRequest(http.MethodPost, "/products", url.Values{"nombre": {"Tuerca"}, "precio": {"0.5"}}), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "Tuerca", got.Nombre)
	assert.Equal(t, "0.5", got.Precio.String())
}

func TestStore_ValidationRedirectsBackWithoutUpstreamCall(t *testing.T) {
	svc := &mockProductService{}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	req := formRequest(http.MethodPost, "/products", url.Values{"nombre": {""}, "precio": {"abc"}})
	req.Header.Set("Referer", "http://localhost/products")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "http://localhost/products", resp.Header.Get("Location"))
	assert.Equal(t, 0, svc.calls, "no upstream call on invalid input")
	assert.Equal(t, map[string][]string{
		product.FieldNombre: {product.MsgNombreRequired},
		product.FieldPrecio: {product.MsgPrecioNumeric},
	}, flash.last().Errors)
}

func TestStore_ValidationJSONClientGets422(t *testing.T) {
	svc := &mockProductService{}
	app := newTestApp(svc, &recordingFlash{})

	req := jsonRequest(http.MethodPost, "/products", `{"nombre":"Widget","precio":0}`)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, product.MsgPrecioMin, body.Message)
	assert.Equal(t, []string{product.MsgPrecioMin}, body.Errors[product.FieldPrecio])
	assert.Equal(t, 0, svc.calls)
}

func TestStore_InvalidJSON(t *testing.T) {
	app := newTestApp(&mockProductService{}, &recordingFlash{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", "{invalid"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStore_UpstreamFailure(t *testing.T) {
	svc := &mockProductService{createFn: func(context.Context, product.Draft) error {
		return &upstream.Error{Op: "create", Status: 500}
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/products", `{"nombre":"Widget","precio":9.99}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, errorFlash(product.MsgCreateFailed), flash.last())
}

// ─── Update ───────────────────────────────────────────────────────────────────

func TestUpdate_Success(t *testing.T) {
	var gotID string
	svc := &mockProductService{updateFn: func(_ context.Context, id string, _ product.Draft) error {
		gotID = id
		return nil
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		resp, err := app.Test(jsonRequest(method, "/products/7", `{"nombre":"Widget","precio":12.5}`), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, method)
		assert.Equal(t, "/products", resp.Header.Get("Location"))
		assert.Equal(t, "7", gotID)
		assert.Equal(t, successFlash(product.MsgUpdated), flash.last())
	}
}

func TestUpdate_FailureIncludesStatus(t *testing.T) {
	svc := &mockProductService{updateFn: func(context.Context, string, product.Draft) error {
		return &upstream.Error{Op: "update", Status: http.StatusUnprocessableEntity}
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/products/7", `{"nombre":"Widget","precio":12.5}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, errorFlash("Error al actualizar el producto. Código: 422"), flash.last())
}

func TestUpdate_ValidationFailure(t *testing.T) {
	svc := &mockProductService{}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/products/7", `{"nombre":"Widget"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)
	assert.Equal(t, []string{product.MsgPrecioRequired}, flash.last().Errors[product.FieldPrecio])
}

// ─── Destroy ──────────────────────────────────────────────────────────────────

func TestDestroy_Success(t *testing.T) {
	var gotID string
	svc := &mockProductService{deleteFn: func(_ context.Context, id string) error {
		gotID = id
		return nil
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	req, _ := http.NewRequest(http.MethodDelete, "/products/42", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))
	assert.Equal(t, "42", gotID)
	assert.Equal(t, successFlash(product.MsgDeleted), flash.last())
}

func TestDestroy_Failure(t *testing.T) {
	svc := &mockProductService{deleteFn: func(context.Context, string) error {
		return &upstream.Error{Op: "delete", Status: 500}
	}}
	flash := &recordingFlash{}
	app := newTestApp(svc, flash)

	req, _ := http.NewRequest(http.MethodDelete, "/products/42", nil)
	req.Header.Set("Referer", "http://localhost/products")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/products", resp.Header.Get("Location"))
	assert.Equal(t, errorFlash(product.MsgDeleteFailed), flash.last())
}

// ─── Home ─────────────────────────────────────────────────────────────────────

func TestHome_ShowsPendingFlash(t *testing.T) {
	flash := &recordingFlash{pending: errorFlash(product.MsgListFailed)}
	app := newTestApp(&mockProductService{}, flash)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Inertia", "true")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Header.Get("X-Inertia"))

	page := decodePage(t, resp)
	assert.Equal(t, "Welcome", page.Component)
	assert.Equal(t, map[string]any{generalErrorKey: []any{product.MsgListFailed}}, page.Props["errors"])
}

package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/availability"
	"minishop-gateway/internal/domain"
	cartrepo "minishop-gateway/internal/repository/cart"
	cartsvc "minishop-gateway/internal/service/cart"
)

type fixture struct {
	svc      *Service
	carts    *cartsvc.Service
	lastBody []byte
	lastPath string
}

func newFixture(t *testing.T, handler func(f *fixture, w http.ResponseWriter, r *http.Request)) *fixture {
	t.Helper()
	f := &fixture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.RequestURI()
		f.lastBody, _ = io.ReadAll(r.Body)
		handler(f, w, r)
	}))
	t.Cleanup(srv.Close)
	f.carts = cartsvc.New(cartrepo.NewMemory(time.Hour), nil)
	f.svc = New(apiclient.New(srv.URL, nil, apiclient.WithHTTPClient(srv.Client())), f.carts, nil)
	return f
}

func TestLoadStore(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tea-house" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"shop":{"_id":"s1","name":"Tea House"},"products":[{"_id":"p1","name":"Green","price":12.5,"imageUrl":"https://img/1.png"},{"id":"p2","name":"Black","price":"n/a"}]}`))
	})

	got, err := f.svc.LoadStore(context.Background(), "tea-house")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.Shop.ID)
	require.Len(t, got.Products, 2)
	assert.Equal(t, "p1", got.Products[0].ID)
	assert.Equal(t, "https://img/1.png", got.Products[0].ImageURL)
	require.NotNil(t, got.Products[0].Price)
	assert.Equal(t, 12.5, *got.Products[0].Price)
	assert.Equal(t, "p2", got.Products[1].ID)
	assert.Nil(t, got.Products[1].Price)

	_, err = f.svc.LoadStore(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestLoadStore_UpstreamErrorMessage(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"db down"}`))
	})
	_, err := f.svc.LoadStore(context.Background(), "tea-house")
	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 500, reqErr.Status)
	assert.Equal(t, "db down", reqErr.Message)
}

func TestBranches_ClassifiesAndBuildsPins(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"branches":[
			{"_id":"b1","name":"Center","location":{"lat":42.87,"lng":74.6},"productCounts":[{"productId":"A","count":2},{"productId":"B","count":1}]},
			{"_id":"b2","name":"South","location":{"lat":42.8,"lng":74.5},"productCounts":[{"productId":"A","count":1},{"productId":"B","count":1}]},
			{"_id":"b3","name":"No coords","productCounts":[]}
		]}`))
	})

	got, err := f.svc.Branches(context.Background(), "tea-house", availability.Requirements{"A": 2, "B": 1})
	require.NoError(t, err)
	assert.Equal(t, "/store/tea-house/branches?productIds=A&productIds=B", f.lastPath)

	require.Len(t, got.Branches, 3)
	assert.True(t, got.Branches[0].Sufficient)
	assert.False(t, got.Branches[1].Sufficient)
	assert.False(t, got.Branches[2].Sufficient)

	require.Len(t, got.Pins, 2)
	assert.Equal(t, "/tea-house/branches/b1/booking", got.Pins[0].Target)
	assert.Empty(t, got.Pins[1].Target)
	assert.NotNil(t, got.Viewport.Bounds)
}

func TestBranches_EmptyRequirementsAllSufficient(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"branches":[{"_id":"b1","location":{"lat":1,"lng":2}}]}`))
	})
	got, err := f.svc.Branches(context.Background(), "tea-house", nil)
	require.NoError(t, err)
	assert.Equal(t, "/store/tea-house/branches", f.lastPath)
	require.Len(t, got.Branches, 1)
	assert.True(t, got.Branches[0].Sufficient)
	require.NotNil(t, got.Viewport.Center)
}

func TestTapBranch(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"branches":[
			{"_id":"b1","location":{"lat":1,"lng":2},"productCounts":[{"productId":"p1","count":5}]},
			{"_id":"b2","location":{"lat":3,"lng":4},"productCounts":[]},
			{"_id":"b3","productCounts":[{"productId":"p1","count":5}]}
		]}`))
	})
	ctx := context.Background()
	snap, err := f.carts.Create(ctx, "tea-house")
	require.NoError(t, err)
	p1 := domain.Product{ID: "p1", Name: "Green"}
	_, err = f.carts.Apply(ctx, "tea-house", snap.ID, cartsvc.UpdateInput{Actions: []cartsvc.UpdateAction{{Action: "add", Product: &p1}}})
	require.NoError(t, err)

	target, err := f.svc.TapBranch(ctx, "tea-house", "b1", snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tea-house/branches/b1/booking", target)

	_, err = f.svc.TapBranch(ctx, "tea-house", "b2", snap.ID)
	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusConflict, reqErr.Status)
	assert.Equal(t, "Недостаточно товаров на складе", reqErr.Message)

	_, err = f.svc.TapBranch(ctx, "tea-house", "b3", snap.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBook_SendsOrderAndDiscardsCart(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"_id":"o1"}}`))
	})
	ctx := context.Background()
	snap, err := f.carts.Create(ctx, "tea-house")
	require.NoError(t, err)
	price := 10.0
	p1 := domain.Product{ID: "p1", Name: "Green", Price: &price, ImageURL: "x"}
	_, err = f.carts.Apply(ctx, "tea-house", snap.ID, cartsvc.UpdateInput{Actions: []cartsvc.UpdateAction{
		{Action: "add", Product: &p1}, {Action: "add", Product: &p1}, {Action: "add", Product: &p1},
	}})
	require.NoError(t, err)

	res, err := f.svc.Book(ctx, "tea-house", "b1", snap.ID, Customer{Name: "  Aida ", Phone: " +996 555 ", Description: "  "})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "/store/tea-house/branches/b1/order", f.lastPath)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.lastBody, &sent))
	assert.Equal(t, "Aida", sent["customerName"])
	assert.Equal(t, "+996 555", sent["customerPhone"])
	_, hasDescription := sent["customerDescription"]
	assert.False(t, hasDescription)
	assert.Equal(t, []any{map[string]any{"productId": "p1", "quantity": float64(3)}}, sent["products"])

	_, err = f.carts.Get(ctx, "tea-house", snap.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBook_Validation(t *testing.T) {
	calls := 0
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	ctx := context.Background()
	snap, err := f.carts.Create(ctx, "tea-house")
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, "tea-house", "b1", snap.ID, Customer{Name: " ", Phone: "1"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "customerName")

	_, err = f.svc.Book(ctx, "tea-house", "b1", snap.ID, Customer{Name: "A", Phone: "1"})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "cart")
	assert.Equal(t, 0, calls)
}

func TestBook_UpstreamFailureKeepsCart(t *testing.T) {
	f := newFixture(t, func(_ *fixture, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"out of stock"}`))
	})
	ctx := context.Background()
	snap, err := f.carts.Create(ctx, "tea-house")
	require.NoError(t, err)
	p := domain.Product{ID: "p1"}
	_, err = f.carts.Apply(ctx, "tea-house", snap.ID, cartsvc.UpdateInput{Actions: []cartsvc.UpdateAction{{Action: "add", Product: &p}}})
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, "tea-house", "b1", snap.ID, Customer{Name: "A", Phone: "1"})
	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "out of stock", reqErr.Message)

	_, err = f.carts.Get(ctx, "tea-house", snap.ID)
	assert.NoError(t, err)
}

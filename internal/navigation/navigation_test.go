package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		path string
		want Route
	}{
		{"/", Route{Shell: ShellCustomer, View: ViewLanding}},
		{"", Route{Shell: ShellCustomer, View: ViewLanding}},
		{"/tea-house", Route{Shell: ShellCustomer, View: ViewStorefront, Params: map[string]string{"store": "tea-house"}}},
		{"/tea-house/", Route{Shell: ShellCustomer, View: ViewStorefront, Params: map[string]string{"store": "tea-house"}}},
		{"/tea-house/branches?productIds=a,b", Route{Shell: ShellCustomer, View: ViewBranches, Params: map[string]string{"store": "tea-house"}}},
		{"/tea-house/branches/b7/booking", Route{Shell: ShellCustomer, View: ViewBooking, Params: map[string]string{"store": "tea-house", "branchId": "b7"}}},
		{"/tea-house/menu/extra", Route{Shell: ShellCustomer, View: ViewLanding}},
		{"/provider/branch/b1", Route{Shell: ShellProvider, View: ViewDashboard, Params: map[string]string{"branchId": "b1"}}},
		{"/provider/shop/create", Route{Shell: ShellProvider, View: ViewShopCreate}},
		{"/provider/shop/update", Route{Shell: ShellProvider, View: ViewShopUpdate}},
		{"/provider/shop/branch-settings", Route{Shell: ShellProvider, View: ViewBranchList}},
		{"/provider/shop/branch/create", Route{Shell: ShellProvider, View: ViewBranchCreate}},
		{"/provider/shop/branch/b2/edit", Route{Shell: ShellProvider, View: ViewBranchEdit, Params: map[string]string{"branchId": "b2"}}},
		{"/provider/product/create", Route{Shell: ShellProvider, View: ViewProductCreate}},
		{"/provider/product/p9/edit", Route{Shell: ShellProvider, View: ViewProductEdit, Params: map[string]string{"productId": "p9"}}},
		{"/provider/replenish/b3", Route{Shell: ShellProvider, View: ViewReplenish, Params: map[string]string{"branchId": "b3"}}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.path))
		})
	}
}

func TestResolve_ProviderRedirects(t *testing.T) {
	for _, path := range []string{"/provider", "/provider/", "/provider/branch", "/provider/nope", "/provider/shop/branch/b1/delete", "/provider/a/b/c/d/e"} {
		r := Resolve(path)
		assert.Equal(t, ShellProvider, r.Shell, path)
		assert.Equal(t, DefaultProviderPath, r.Redirect, path)
		assert.Equal(t, ViewDashboard, r.View, path)
		assert.Equal(t, AllBranches, r.Params["branchId"], path)
	}
}

func TestResolve_UnescapesSegments(t *testing.T) {
	r := Resolve("/caf%C3%A9")
	assert.Equal(t, "café", r.Params["store"])
}

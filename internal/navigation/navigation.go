// Package navigation resolves mini-app paths to the view the shell should mount.
package navigation

import (
	"net/url"
	"strings"
)

// Shell is the app tree a path belongs to.
type Shell string

const (
	ShellCustomer Shell = "customer"
	ShellProvider Shell = "provider"
)

// Views.
const (
	ViewLanding       = "landing"
	ViewStorefront    = "storefront"
	ViewBranches      = "branches"
	ViewBooking       = "booking"
	ViewDashboard     = "dashboard"
	ViewShopCreate    = "shop-create"
	ViewShopUpdate    = "shop-update"
	ViewBranchList    = "branch-settings"
	ViewBranchCreate  = "branch-create"
	ViewBranchEdit    = "branch-edit"
	ViewProductCreate = "product-create"
	ViewProductEdit   = "product-edit"
	ViewReplenish     = "replenish"
)

// AllBranches is the dashboard branch id meaning every branch of the shop.
const AllBranches = "store"

// DefaultProviderPath is where unknown and bare provider paths land.
const DefaultProviderPath = "/provider/branch/" + AllBranches

// Route is a resolved path. When Redirect is set the shell should replace
// the location with it.
type Route struct {
	Shell    Shell             `json:"shell"`
	View     string            `json:"view"`
	Params   map[string]string `json:"params,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// Resolve maps a path to a route. It never fails.
func Resolve(path string) Route {
	segs := split(path)
	if len(segs) > 0 && segs[0] == "provider" {
		return resolveProvider(segs[1:])
	}
	return resolveCustomer(segs)
}

func resolveCustomer(segs []string) Route {
	switch {
	case len(segs) == 1:
		return customer(ViewStorefront, "store", segs[0])
	case len(segs) == 2 && segs[1] == "branches":
		return customer(ViewBranches, "store", segs[0])
	case len(segs) == 4 && segs[1] == "branches" && segs[3] == "booking":
		return customer(ViewBooking, "store", segs[0], "branchId", segs[2])
	}
	return Route{Shell: ShellCustomer, View: ViewLanding}
}

func resolveProvider(segs []string) Route {
	switch len(segs) {
	case 0:
		return redirect()
	case 1:
		if segs[0] == "branch" {
			return redirect()
		}
	case 2:
		switch segs[0] {
		case "branch":
			return provider(ViewDashboard, "branchId", segs[1])
		case "shop":
			switch segs[1] {
			case "create":
				return provider(ViewShopCreate)
			case "update":
				return provider(ViewShopUpdate)
			case "branch-settings":
				return provider(ViewBranchList)
			}
		case "product":
			if segs[1] == "create" {
				return provider(ViewProductCreate)
			}
		case "replenish":
			return provider(ViewReplenish, "branchId", segs[1])
		}
	case 3:
		switch {
		case segs[0] == "shop" && segs[1] == "branch" && segs[2] == "create":
			return provider(ViewBranchCreate)
		case segs[0] == "product" && segs[2] == "edit":
			return provider(ViewProductEdit, "productId", segs[1])
		}
	case 4:
		if segs[0] == "shop" && segs[1] == "branch" && segs[3] == "edit" {
			return provider(ViewBranchEdit, "branchId", segs[2])
		}
	}
	return redirect()
}

func redirect() Route {
	r := provider(ViewDashboard, "branchId", AllBranches)
	r.Redirect = DefaultProviderPath
	return r
}

func customer(view string, kv ...string) Route {
	return Route{Shell: ShellCustomer, View: view, Params: params(kv)}
}

func provider(view string, kv ...string) Route {
	return Route{Shell: ShellProvider, View: view, Params: params(kv)}
}

func params(kv []string) map[string]string {
	if len(kv) == 0 {
		return nil
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		if u, err := url.PathUnescape(s); err == nil {
			s = u
		}
		out = append(out, s)
	}
	return out
}

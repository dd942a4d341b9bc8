// Package availability decides which branches can fulfil a cart.
package availability

import (
	"strings"

	"minishop-gateway/internal/domain"
)

// Requirements maps product id to the quantity the cart wants.
type Requirements map[string]int

// FromLines collects requirements from cart lines. Lines without an id or
// with a non-positive quantity are not actually wanted and are skipped.
func FromLines(lines []domain.CartLine) Requirements {
	req := make(Requirements, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ID)
		if id == "" || l.Quantity <= 0 {
			continue
		}
		req[id] = l.Quantity
	}
	return req
}

// FromProductIDs treats every listed product as wanted once.
func FromProductIDs(ids []string) Requirements {
	req := make(Requirements, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		req[id] = 1
	}
	return req
}

// IDs lists the required product ids.
func (r Requirements) IDs() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	return out
}

// Stock maps product id to the count recorded at a branch. Duplicate ids keep
// the last entry.
func Stock(b domain.Branch) map[string]float64 {
	available := make(map[string]float64, len(b.ProductCounts))
	for _, c := range b.ProductCounts {
		id := strings.TrimSpace(string(c.ProductID))
		if id == "" {
			continue
		}
		available[id] = float64(c.Count)
	}
	return available
}

// HasEnough reports whether the branch stocks every required quantity.
// Products with no recorded count are treated as zero. No requirements
// means any branch qualifies.
func HasEnough(req Requirements, b domain.Branch) bool {
	if len(req) == 0 {
		return true
	}
	available := Stock(b)
	for id, needed := range req {
		if available[id] < float64(needed) {
			return false
		}
	}
	return true
}

// Verdict is the classification of one branch.
type Verdict struct {
	Branch     domain.Branch `json:"branch"`
	Sufficient bool          `json:"sufficient"`
}

// Classify evaluates every branch independently, preserving input order.
func Classify(req Requirements, branches []domain.Branch) []Verdict {
	out := make([]Verdict, 0, len(branches))
	for _, b := range branches {
		out = append(out, Verdict{Branch: b, Sufficient: HasEnough(req, b)})
	}
	return out
}

package domain

import (
	"sort"
	"strings"
	"time"
)

// Point is a screen position the floating cart button animates from.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CartLine is one distinct product in the cart. Quantity is always >= 1.
type CartLine struct {
	Key      string   `json:"key"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price,omitempty"`
	Image    string   `json:"image,omitempty"`
	Quantity int      `json:"quantity"`
}

// Cart is the in-memory cart of one mounted customer app. Mutations never fail;
// input without an identifiable key is ignored.
type Cart struct {
	ID        string
	Store     string
	CreatedAt time.Time
	UpdatedAt time.Time

	lines      map[string]CartLine
	open       bool
	fabVisible bool
	fabOrigin  *Point
}

// NewCart returns an empty cart.
func NewCart(id, store string) *Cart {
	now := time.Now().UTC()
	return &Cart{ID: id, Store: store, CreatedAt: now, UpdatedAt: now, lines: make(map[string]CartLine)}
}

// AddToCart increments the product's line or inserts it with quantity 1.
// The first add reveals the floating cart button at origin.
func (c *Cart) AddToCart(p Product, origin *Point) {
	key := p.Key()
	if key == "" {
		return
	}
	if existing, ok := c.lines[key]; ok {
		existing.Quantity++
		c.lines[key] = existing
	} else {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = "Unknown"
		}
		id := p.ID
		if id == "" {
			id = key
		}
		c.lines[key] = CartLine{
			Key:      key,
			ID:       id,
			Name:     name,
			Price:    p.Price,
			Image:    p.ImageURL,
			Quantity: 1,
		}
	}
	if !c.fabVisible {
		c.fabVisible = true
		if origin != nil {
			o := *origin
			c.fabOrigin = &o
		}
	}
	c.touch()
}

// Increase adds one to an existing line.
func (c *Cart) Increase(key string) {
	line, ok := c.lines[key]
	if !ok {
		return
	}
	line.Quantity++
	c.lines[key] = line
	c.touch()
}

// Decrease removes one; a line that would reach zero is deleted.
func (c *Cart) Decrease(key string) {
	line, ok := c.lines[key]
	if !ok {
		return
	}
	if line.Quantity <= 1 {
		delete(c.lines, key)
	} else {
		line.Quantity--
		c.lines[key] = line
	}
	c.touch()
}

// RemoveLine deletes the line regardless of quantity.
func (c *Cart) RemoveLine(key string) {
	if _, ok := c.lines[key]; !ok {
		return
	}
	delete(c.lines, key)
	c.touch()
}

// Open shows the cart sheet; an empty cart cannot be opened.
func (c *Cart) Open() {
	if c.TotalCount() == 0 {
		return
	}
	c.open = true
}

// Close hides the cart sheet.
func (c *Cart) Close() {
	c.open = false
}

// TotalCount is the sum of all line quantities.
func (c *Cart) TotalCount() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// Lines returns the cart lines sorted by key.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Line looks up a single line.
func (c *Cart) Line(key string) (CartLine, bool) {
	l, ok := c.lines[key]
	return l, ok
}

// IsOpen reports whether the cart sheet is shown.
func (c *Cart) IsOpen() bool { return c.open }

// FloatingButton reports whether the floating cart button is visible and where it started.
func (c *Cart) FloatingButton() (bool, *Point) {
	return c.fabVisible && c.TotalCount() > 0, c.fabOrigin
}

// OrderProducts maps lines to the order payload, ignoring price, name and image.
func (c *Cart) OrderProducts() []OrderProduct {
	lines := c.Lines()
	out := make([]OrderProduct, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderProduct{ProductID: l.ID, Quantity: l.Quantity})
	}
	return out
}

// touch runs after every mutation. Emptying the cart closes it and hides the button.
func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
	if c.TotalCount() == 0 {
		c.open = false
		c.fabVisible = false
		c.fabOrigin = nil
	}
}

// CartSnapshot is the serialized form of a cart used by the session stores.
type CartSnapshot struct {
	ID         string     `json:"id"`
	Store      string     `json:"store"`
	Lines      []CartLine `json:"lines"`
	Count      int        `json:"count"`
	Open       bool       `json:"open"`
	FabVisible bool       `json:"fabVisible"`
	FabOrigin  *Point     `json:"fabOrigin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Snapshot captures the cart state.
func (c *Cart) Snapshot() CartSnapshot {
	visible, origin := c.FloatingButton()
	return CartSnapshot{
		ID:         c.ID,
		Store:      c.Store,
		Lines:      c.Lines(),
		Count:      c.TotalCount(),
		Open:       c.open,
		FabVisible: visible,
		FabOrigin:  origin,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CartFromSnapshot rebuilds a cart, dropping lines that break the quantity invariant.
func CartFromSnapshot(s CartSnapshot) *Cart {
	c := &Cart{
		ID:         s.ID,
		Store:      s.Store,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		lines:      make(map[string]CartLine, len(s.Lines)),
		open:       s.Open,
		fabVisible: s.FabVisible,
		fabOrigin:  s.FabOrigin,
	}
	for _, l := range s.Lines {
		if l.Key == "" || l.Quantity < 1 {
			continue
		}
		c.lines[l.Key] = l
	}
	if c.TotalCount() == 0 {
		c.open = false
		c.fabVisible = false
		c.fabOrigin = nil
	}
	return c
}

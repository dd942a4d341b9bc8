package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"minishop-gateway/internal/availability"
	cartsvc "minishop-gateway/internal/service/cart"
	storefrontsvc "minishop-gateway/internal/service/storefront"
)

type customerHandlers struct {
	carts      CartService
	storefront StorefrontService
	logger     *zap.Logger
}

type bookingRequest struct {
	CartID string `json:"cartId"`
	storefrontsvc.Customer
}

func (h *customerHandlers) loadStore(c *gin.Context) {
	front, err := h.storefront.LoadStore(c.Request.Context(), c.Param("store"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, front)
}

func (h *customerHandlers) createCart(c *gin.Context) {
	snap, err := h.carts.Create(c.Request.Context(), c.Param("store"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *customerHandlers) getCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), c.Param("store"), c.Param("cartId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart.Snapshot())
}

func (h *customerHandlers) deleteCart(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), c.Param("store"), c.Param("cartId")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *customerHandlers) applyCart(c *gin.Context) {
	var in cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	snap, err := h.carts.Apply(c.Request.Context(), c.Param("store"), c.Param("cartId"), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// branches classifies the store's branches against a cart session, or
// against bare product ids (quantity 1 each) when no cart is given.
func (h *customerHandlers) branches(c *gin.Context) {
	store := c.Param("store")
	if cartID := strings.TrimSpace(c.Query("cartId")); cartID != "" {
		out, err := h.storefront.BranchesForCart(c.Request.Context(), store, cartID)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, out)
		return
	}

	var ids []string
	for _, v := range c.QueryArray("productIds") {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	out, err := h.storefront.Branches(c.Request.Context(), store, availability.FromProductIDs(ids))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// tapBranch answers where tapping a branch pin leads for the cart.
func (h *customerHandlers) tapBranch(c *gin.Context) {
	target, err := h.storefront.TapBranch(c.Request.Context(), c.Param("store"), c.Param("branchId"), strings.TrimSpace(c.Query("cartId")))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"target": target})
}

func (h *customerHandlers) book(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.storefront.Book(c.Request.Context(), c.Param("store"), c.Param("branchId"), req.CartID, req.Customer)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

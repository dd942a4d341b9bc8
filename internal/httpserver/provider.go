package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"minishop-gateway/internal/domain"
	operatorsvc "minishop-gateway/internal/service/operator"
)

type providerHandlers struct {
	operator *operatorsvc.Service
	logger   *zap.Logger
}

type authRequest struct {
	InitDataRaw string `json:"initDataRaw"`
}

type replenishRequest struct {
	Quantity float64 `json:"quantity"`
}

type replenishManyRequest struct {
	Lines []operatorsvc.StockLine `json:"lines"`
}

// op binds the operator service to the caller's session.
func (h *providerHandlers) op(c *gin.Context) *operatorsvc.Service {
	return h.operator.For(sessionFrom(c))
}

func (h *providerHandlers) fail(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

func (h *providerHandlers) auth(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sess, err := h.operator.Authenticate(c.Request.Context(), req.InitDataRaw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": sess.Token()})
}

func (h *providerHandlers) getShop(c *gin.Context) {
	shop, err := h.op(c).GetShop(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *providerHandlers) createShop(c *gin.Context) {
	var in operatorsvc.ShopInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	shop, err := h.op(c).CreateShop(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, shop)
}

func (h *providerHandlers) updateShop(c *gin.Context) {
	var in operatorsvc.ShopInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	shop, err := h.op(c).UpdateShop(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// shopLink resolves the public storefront link, looking the slug up when
// the caller did not pass one.
func (h *providerHandlers) shopLink(c *gin.Context) (string, error) {
	op := h.op(c)
	slug := strings.TrimSpace(c.Query("slug"))
	if slug == "" {
		shop, err := op.GetShop(c.Request.Context())
		if err != nil {
			return "", err
		}
		slug = shop.Slug
	}
	return op.StoreLink(slug)
}

func (h *providerHandlers) storeLink(c *gin.Context) {
	link, err := h.shopLink(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *providerHandlers) storeQR(c *gin.Context) {
	link, err := h.shopLink(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	qr, err := operatorsvc.StoreLinkQR(link)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", qr)
}

func (h *providerHandlers) listBranches(c *gin.Context) {
	branches, err := h.op(c).ListBranches(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

func (h *providerHandlers) getBranch(c *gin.Context) {
	b, err := h.op(c).GetBranch(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *providerHandlers) branchForm(c *gin.Context) {
	b, err := h.op(c).GetBranch(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, operatorsvc.FormFromBranch(b))
}

func (h *providerHandlers) createBranch(c *gin.Context) {
	var in operatorsvc.BranchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	b, err := h.op(c).CreateBranch(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *providerHandlers) updateBranch(c *gin.Context) {
	var in operatorsvc.BranchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	b, err := h.op(c).UpdateBranch(c.Request.Context(), c.Param("branchId"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *providerHandlers) branchStats(c *gin.Context) {
	stats, err := h.op(c).BranchStats(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *providerHandlers) checkChannel(c *gin.Context) {
	connected, err := h.op(c).CheckChannel(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": connected})
}

func (h *providerHandlers) channelLink(c *gin.Context) {
	link, err := h.op(c).ChannelConnectLink(c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *providerHandlers) listProducts(c *gin.Context) {
	products, err := h.op(c).ListProducts(c.Request.Context(), c.Param("branchId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *providerHandlers) stockCount(c *gin.Context) {
	count, err := h.op(c).StockCount(c.Request.Context(), c.Param("branchId"), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *providerHandlers) replenish(c *gin.Context) {
	var req replenishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.op(c).Replenish(c.Request.Context(), c.Param("branchId"), c.Param("productId"), req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *providerHandlers) replenishMany(c *gin.Context) {
	var req replenishManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	sent, err := h.op(c).ReplenishMany(c.Request.Context(), c.Param("branchId"), req.Lines)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (h *providerHandlers) getProduct(c *gin.Context) {
	p, err := h.op(c).GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *providerHandlers) createProduct(c *gin.Context) {
	var in operatorsvc.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.op(c).CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *providerHandlers) updateProduct(c *gin.Context) {
	var in operatorsvc.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.op(c).UpdateProduct(c.Request.Context(), c.Param("productId"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *providerHandlers) deleteProduct(c *gin.Context) {
	if err := h.op(c).DeleteProduct(c.Request.Context(), c.Param("productId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pickLocation applies one branch location picker interaction and echoes
// the rounded selection.
func (h *providerHandlers) pickLocation(c *gin.Context) {
	var in operatorsvc.LocationPick
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": h.op(c).PickLocation(c.Request.Context(), in)})
}

// uploadBodyLimit leaves room for multipart framing around the file.
const uploadBodyLimit = operatorsvc.MaxImageBytes + 1<<20

func (h *providerHandlers) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploadBodyLimit)
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, domain.Invalid("image", fmt.Sprintf("Файл слишком большой (макс. %dMB)", operatorsvc.MaxImageBytes>>20)))
			return
		}
		h.fail(c, domain.Invalid("image", "Выберите файл изображения"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, operatorsvc.MaxImageBytes+1))
	if err != nil {
		h.fail(c, err)
		return
	}
	url, err := h.op(c).UploadImage(c.Request.Context(), operatorsvc.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

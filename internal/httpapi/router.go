// Package httpapi exposes the state containers as a small JSON API.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/storefront/internal/address"
	"github.com/roach88/storefront/internal/app"
	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/favorites"
	"github.com/roach88/storefront/internal/orders"
	"github.com/roach88/storefront/internal/validate"
)

// Handler serves the API for one App.
type Handler struct {
	app    *app.App
	logger *slog.Logger
}

// NewRouter builds the gin engine. gatherer backs /metrics; nil uses the
// default registry.
func NewRouter(a *app.App, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{app: a, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)

	r.GET("/cart", h.getCart)
	r.POST("/cart/items", h.addCartItem)
	r.PATCH("/cart/items/:id", h.updateCartItem)
	r.DELETE("/cart/items/:id", h.removeCartItem)
	r.DELETE("/cart", h.clearCart)

	r.GET("/favorites", h.listFavorites)
	r.POST("/favorites", h.addFavorite)
	r.GET("/favorites/:id", h.isFavorite)
	r.DELETE("/favorites/:id", h.removeFavorite)

	r.GET("/addresses", h.listAddresses)
	r.POST("/addresses", h.addAddress)
	r.DELETE("/addresses/:id", h.removeAddress)

	r.GET("/theme", h.getTheme)
	r.POST("/theme/toggle", h.toggleTheme)

	r.GET("/preferences/notifications", h.getNotifications)
	r.PUT("/preferences/notifications", h.putNotifications)
	r.DELETE("/preferences/notifications", h.resetNotifications)

	r.GET("/toast", h.getToast)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return r
}

func (h *Handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.Debug("http request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

// badInput replies 400 with the validation details when err carries them.
func badInput(c *gin.Context, err error) {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": verrs})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
}

type cartResponse struct {
	Items []cart.Item `json:"items"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

func (h *Handler) cartState() cartResponse {
	return cartResponse{
		Items: h.app.Cart.Items(),
		Total: h.app.Cart.Total(),
		Count: h.app.Cart.Count(),
	}
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartState())
}

func (h *Handler) addCartItem(c *gin.Context) {
	var p cart.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badInput(c, err)
		return
	}
	if err := h.app.Validator.CartProduct(p); err != nil {
		badInput(c, err)
		return
	}
	h.app.Cart.AddToCart(p)
	c.JSON(http.StatusOK, h.cartState())
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	h.app.Cart.UpdateQuantity(c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, h.cartState())
}

func (h *Handler) removeCartItem(c *gin.Context) {
	h.app.Cart.RemoveFromCart(c.Param("id"))
	c.JSON(http.StatusOK, h.cartState())
}

func (h *Handler) clearCart(c *gin.Context) {
	h.app.Cart.ClearCart()
	c.JSON(http.StatusOK, h.cartState())
}

func (h *Handler) listFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"favorites": h.app.Favorites.Favorites()})
}

func (h *Handler) addFavorite(c *gin.Context) {
	var p favorites.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badInput(c, err)
		return
	}
	if err := h.app.Validator.FavoriteProduct(p); err != nil {
		badInput(c, err)
		return
	}
	h.app.Favorites.AddToFavorites(p)
	c.JSON(http.StatusOK, gin.H{"favorites": h.app.Favorites.Favorites()})
}

func (h *Handler) isFavorite(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": h.app.Favorites.IsFavorite(id)})
}

func (h *Handler) removeFavorite(c *gin.Context) {
	h.app.Favorites.RemoveFromFavorites(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"favorites": h.app.Favorites.Favorites()})
}

func (h *Handler) listAddresses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"addresses": h.app.Addresses.Addresses()})
}

func (h *Handler) addAddress(c *gin.Context) {
	var f address.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		badInput(c, err)
		return
	}
	if err := h.app.Validator.Address(f); err != nil {
		badInput(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.app.Addresses.AddAddress(f))
}

func (h *Handler) removeAddress(c *gin.Context) {
	h.app.Addresses.RemoveAddress(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, h.themeState())
}

func (h *Handler) toggleTheme(c *gin.Context) {
	h.app.Theme.Toggle()
	c.JSON(http.StatusOK, h.themeState())
}

func (h *Handler) themeState() gin.H {
	return gin.H{"dark": h.app.Theme.IsDark(), "palette": h.app.Theme.Palette()}
}

type notificationsRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) getNotifications(c *gin.Context) {
	h.notificationsState(c)
}

func (h *Handler) putNotifications(c *gin.Context) {
	var req notificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	if err := orders.SetNotifications(c.Request.Context(), h.app.KV, *req.Enabled); err != nil {
		h.logger.Error("failed to save notification preference", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preference"})
		return
	}
	h.notificationsState(c)
}

func (h *Handler) resetNotifications(c *gin.Context) {
	if err := orders.ResetNotifications(c.Request.Context(), h.app.KV); err != nil {
		h.logger.Error("failed to reset notification preference", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset preference"})
		return
	}
	h.notificationsState(c)
}

func (h *Handler) notificationsState(c *gin.Context) {
	enabled, set, err := orders.NotificationsEnabled(c.Request.Context(), h.app.KV)
	if err != nil {
		h.logger.Error("failed to read notification preference", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read preference"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled, "set": set})
}

func (h *Handler) getToast(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Toasts.Current())
}

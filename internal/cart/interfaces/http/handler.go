package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/sanset/internal/cart/application"
	cartdomain "github.com/wyfcoding/sanset/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/sanset/internal/catalog/domain"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/middleware"
	"github.com/wyfcoding/sanset/pkg/response"
)

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	app *application.CartApplicationService
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(app *application.CartApplicationService) *CartHandler {
	return &CartHandler{app: app}
}

// RegisterRoutes 注册路由，全部要求鉴权
func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/cart")
	{
		api.GET("", h.GetCart)
		api.POST("/add", h.AddItem)
		api.POST("/remove", h.RemoveItem)
	}
}

// GetCart 获取当前用户购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	view, err := h.app.GetCart(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get cart", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, view)
}

type addItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Qty       int  `json:"qty" binding:"required,min=1"`
}

// AddItem 添加商品到当前用户购物车
func (h *CartHandler) AddItem(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.app.AddItem(c.Request.Context(), userID, req.ProductID, req.Qty); err != nil {
		switch {
		case errors.Is(err, catalogdomain.ErrProductNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, "product not found", "")
		case errors.Is(err, cartdomain.ErrInvalidQuantity):
			response.ErrorWithStatus(c, http.StatusBadRequest, "quantity must be positive", "")
		default:
			logger.Error(c.Request.Context(), "Failed to add cart item", "user_id", userID, "product_id", req.ProductID, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	view, err := h.app.GetCart(c.Request.Context(), userID)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view)
}

type removeItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// RemoveItem 从当前用户购物车移除商品
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.app.RemoveItem(c.Request.Context(), userID, req.ProductID); err != nil {
		logger.Error(c.Request.Context(), "Failed to remove cart item", "user_id", userID, "product_id", req.ProductID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	view, err := h.app.GetCart(c.Request.Context(), userID)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, view)
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/sanset/internal/order/application"
	"github.com/wyfcoding/sanset/internal/order/domain"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/middleware"
	"github.com/wyfcoding/sanset/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	app *application.OrderApplicationService
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(app *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{app: app}
}

// RegisterRoutes 注册路由，全部要求鉴权
func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/orders")
	{
		api.POST("/checkout", h.Checkout)
		api.GET("/:id", h.GetOrder)
		api.GET("", h.ListOrders)
	}
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	AddressID     uint   `json:"address_id" binding:"required"`
	CouponCode    string `json:"coupon_code"`
}

// Checkout 结账：把当前用户的购物车转换为订单
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.app.Checkout(c.Request.Context(), application.CheckoutCommand{
		UserID:        userID,
		PaymentMethod: req.PaymentMethod,
		AddressID:     req.AddressID,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			response.ErrorWithStatus(c, http.StatusBadRequest, "cart is empty", "")
		case errors.Is(err, domain.ErrNoFulfillableItems):
			response.ErrorWithStatus(c, http.StatusBadRequest, "products unavailable", "")
		default:
			logger.Error(c.Request.Context(), "Checkout failed", "user_id", userID, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, resp)
}

// GetOrder 获取当前用户的订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	orderID := c.Param("id")

	order, err := h.app.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "order not found", "")
			return
		}
		logger.Error(c.Request.Context(), "Failed to get order", "order_id", orderID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, order)
}

// ListOrders 分页列出当前用户订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return
	}

	result, err := h.app.ListOrders(c.Request.Context(), userID, offset, limit)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list orders", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, result)
}

package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/sanset/internal/recommendation/application"
	"github.com/wyfcoding/sanset/internal/recommendation/domain"
	"github.com/wyfcoding/sanset/pkg/logger"
	"github.com/wyfcoding/sanset/pkg/middleware"
	"github.com/wyfcoding/sanset/pkg/response"
)

// RecommendationHandler 推荐 HTTP 处理器
type RecommendationHandler struct {
	engine   *application.Engine
	maxLimit int
}

// NewRecommendationHandler 创建 HTTP 处理器实例
func NewRecommendationHandler(engine *application.Engine, maxLimit int) *RecommendationHandler {
	return &RecommendationHandler{engine: engine, maxLimit: maxLimit}
}

// RegisterRoutes 注册路由，全部要求鉴权
func (h *RecommendationHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/recommendations")
	{
		api.GET("", h.GetMyRecommendations)
		api.GET("/:user_id", h.GetRecommendations)
	}
}

type recommendationResponse struct {
	UserID          string                  `json:"user_id"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// GetMyRecommendations 为当前用户生成推荐
func (h *RecommendationHandler) GetMyRecommendations(c *gin.Context) {
	h.serve(c, middleware.CurrentUserID(c))
}

// GetRecommendations 为指定用户生成推荐（管理端）
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required", "")
		return
	}
	h.serve(c, userID)
}

func (h *RecommendationHandler) serve(c *gin.Context, userID string) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > h.maxLimit {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}
	scene := c.DefaultQuery("context", "homepage")

	recommendations, err := h.engine.Recommend(c.Request.Context(), userID, limit, scene)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to generate recommendations", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, recommendationResponse{
		UserID:          userID,
		Recommendations: recommendations,
	})
}

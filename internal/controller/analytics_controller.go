package controller

import (
	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// GetAnalytics godoc
// @Summary 学习统计
// @Description 跨全部路径的汇总：完成度、活跃天数、技能清单与近期动态
// @Tags 统计
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.LearningAnalytics} "成功"
// @Router /api/analytics [get]
func (c *AnalyticsController) GetAnalytics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	analytics, err := c.AnalyticsService.GetUserAnalytics(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, analytics)
}

package controller

import (
	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// ToggleStepRequest 切换步骤完成状态
type ToggleStepRequest struct {
	ModuleIndex *int `json:"moduleIndex" binding:"required"`
	TopicIndex  *int `json:"topicIndex" binding:"required"`
}

// ToggleStep godoc
// @Summary 切换学习步骤完成状态
// @Description 勾选或取消勾选一个子主题，重算进度并结算新解锁的成就
// @Tags 进度
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Param   body body ToggleStepRequest true "步骤坐标"
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 400 {object} util.Response "步骤坐标越界"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/paths/{id}/progress/toggle [post]
func (c *ProgressController) ToggleStep(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	var req ToggleStepRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.ProgressService.ToggleStep(claims.UserID, ctx.Param("id"), *req.ModuleIndex, *req.TopicIndex)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// GetProgress godoc
// @Summary 查询路径进度
// @Description 返回整体与逐模块完成百分比及已解锁成就
// @Tags 进度
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Success 200 {object} util.Response{data=service.PathProgress} "成功"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/paths/{id}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	progress, err := c.ProgressService.GetProgress(claims.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

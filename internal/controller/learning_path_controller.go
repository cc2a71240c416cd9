package controller

import (
	"encoding/json"
	"io"

	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LearningPathController struct {
	PathService *service.LearningPathService
}

func NewLearningPathController(pathService *service.LearningPathService) *LearningPathController {
	return &LearningPathController{PathService: pathService}
}

// Generate godoc
// @Summary 生成学习路径
// @Description 根据技能与学习偏好调用 AI 生成一条新的学习路径并保存
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.GenerateRequest true "生成参数"
// @Success 201 {object} util.Response{data=model.LearningPath} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 502 {object} util.Response "AI 生成失败"
// @Router /api/paths [post]
func (c *LearningPathController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	var req service.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.PathService.GenerateAndSave(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, path)
}

// List godoc
// @Summary 学习路径列表
// @Description 返回当前用户的全部学习路径，按创建时间倒序
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.LearningPath} "成功"
// @Router /api/paths [get]
func (c *LearningPathController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	paths, err := c.PathService.List(claims.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, paths)
}

// Get godoc
// @Summary 学习路径详情
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/paths/{id} [get]
func (c *LearningPathController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	path, err := c.PathService.Get(claims.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// Delete godoc
// @Summary 删除学习路径
// @Tags 学习路径
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Success 200 {object} util.Response "删除成功"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/paths/{id} [delete]
func (c *LearningPathController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	if err := c.PathService.Delete(claims.UserID, ctx.Param("id")); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// Regenerate godoc
// @Summary 重新生成学习路径
// @Description 用新的表单重新生成模块并重置进度，已解锁的成就保留
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Param   body body service.GenerateRequest true "生成参数"
// @Success 200 {object} util.Response{data=model.LearningPath} "成功"
// @Failure 404 {object} util.Response "路径不存在"
// @Failure 502 {object} util.Response "AI 生成失败"
// @Router /api/paths/{id}/regenerate [post]
func (c *LearningPathController) Regenerate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	var req service.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.PathService.Regenerate(ctx.Request.Context(), claims.UserID, ctx.Param("id"), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, path)
}

// Watch godoc
// @Summary 订阅学习路径变更
// @Description SSE 流。连接后立即推送一次全量快照，之后每次路径增删改都推送最新快照
// @Tags 学习路径
// @Produce  text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /api/paths/watch [get]
func (c *LearningPathController) Watch(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	pubsub := c.PathService.Repo.Subscribe(ctx.Request.Context(), claims.UserID)
	defer pubsub.Close()
	events := pubsub.Channel()

	snapshot := func() ([]byte, error) {
		paths, err := c.PathService.List(claims.UserID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(paths)
	}

	// 连接建立即推一次全量，订阅端无需单独拉取初始状态
	initial, err := snapshot()
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	ctx.SSEvent("paths", string(initial))
	ctx.Writer.Flush()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case msg, ok := <-events:
			if !ok {
				return false
			}
			data, err := snapshot()
			if err != nil {
				logger.Log.Warn("Failed to load snapshot for watch stream",
					zap.Uint("user_id", claims.UserID),
					zap.String("event", msg.Payload),
					zap.Error(err))
				return true
			}
			ctx.SSEvent("paths", string(data))
			return true
		}
	})
}

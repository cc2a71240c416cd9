package controller

import (
	"fmt"
	"net/http"
	"time"

	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"
	"learning_path_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExportController struct {
	PathService    *service.LearningPathService
	ExportService  *service.ExportService
	StorageService *service.StorageService
}

func NewExportController(pathService *service.LearningPathService, exportService *service.ExportService, storageService *service.StorageService) *ExportController {
	return &ExportController{
		PathService:    pathService,
		ExportService:  exportService,
		StorageService: storageService,
	}
}

// ExportPDF godoc
// @Summary 导出学习路径 PDF
// @Description 生成完整的路径文档并作为附件下载，save=true 时同时归档一份
// @Tags 导出
// @Produce  application/pdf
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Param   save query bool false "是否归档到存储"
// @Success 200 {file} binary "PDF 文件"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/paths/{id}/export/pdf [get]
func (c *ExportController) ExportPDF(ctx *gin.Context) {
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

	data, err := c.ExportService.GeneratePDF(path, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := service.PDFFileName(path.Skill)
	c.archiveIfRequested(ctx, claims.UserID, filename, data, util.MimePDF)

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, util.MimePDF, data)
}

// ExportCalendar godoc
// @Summary 导出学习日历
// @Description 为每个模块生成一个周度学习事件的 ICS 文件
// @Tags 导出
// @Produce  text/calendar
// @Security BearerAuth
// @Param   id path string true "路径ID"
// @Param   save query bool false "是否归档到存储"
// @Success 200 {file} binary "ICS 文件"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/paths/{id}/export/calendar [get]
func (c *ExportController) ExportCalendar(ctx *gin.Context) {
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

	data, err := c.ExportService.GenerateCalendar(path, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := service.ICSFileName(path.Skill)
	c.archiveIfRequested(ctx, claims.UserID, filename, data, util.MimeCalendar)

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, util.MimeCalendar, data)
}

// archiveIfRequested 归档失败不影响下载本身
func (c *ExportController) archiveIfRequested(ctx *gin.Context, userID uint, filename string, data []byte, contentType string) {
	if ctx.Query("save") != "true" {
		return
	}
	url, err := c.StorageService.ArchiveExport(ctx.Request.Context(), userID, filename, data, contentType)
	if err != nil {
		logger.Log.Warn("Failed to archive export",
			zap.Uint("user_id", userID),
			zap.String("filename", filename),
			zap.Error(err))
		return
	}
	logger.Log.Info("Export archived", zap.Uint("user_id", userID), zap.String("url", url))
}

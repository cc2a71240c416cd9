package controller

import (
	"learning_path_backend/internal/model"
	"learning_path_backend/internal/service"
	"learning_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyController struct {
	StudyService *service.StudyService
}

func NewStudyController(studyService *service.StudyService) *StudyController {
	return &StudyController{StudyService: studyService}
}

// SaveStudyDataRequest 模块学习数据（笔记/卡片/测验/外部资源）
type SaveStudyDataRequest struct {
	Notes               string              `json:"notes"`
	Flashcards          model.FlashcardList `json:"flashcards"`
	Quizzes             model.QuizList      `json:"quizzes"`
	IntegratedResources model.ResourceList  `json:"integratedResources"`
}

// Get godoc
// @Summary 查询模块学习数据
// @Description 按模块标题取学习工具数据，没有记录时返回空数据
// @Tags 学习工具
// @Produce  json
// @Security BearerAuth
// @Param   moduleTitle query string true "模块标题"
// @Success 200 {object} util.Response{data=model.StudyData} "成功"
// @Router /api/study [get]
func (c *StudyController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	moduleTitle := ctx.Query("moduleTitle")
	if moduleTitle == "" {
		util.BadRequest(ctx, "缺少 moduleTitle 参数")
		return
	}

	data, err := c.StudyService.Get(claims.UserID, moduleTitle)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, data)
}

// Save godoc
// @Summary 保存模块学习数据
// @Description 延迟写入：短时间内的连续保存会合并为一次落库
// @Tags 学习工具
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   moduleTitle query string true "模块标题"
// @Param   body body SaveStudyDataRequest true "学习数据"
// @Success 200 {object} util.Response "已接受"
// @Router /api/study [put]
func (c *StudyController) Save(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "")
		return
	}

	moduleTitle := ctx.Query("moduleTitle")
	if moduleTitle == "" {
		util.BadRequest(ctx, "缺少 moduleTitle 参数")
		return
	}

	var req SaveStudyDataRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	c.StudyService.Save(claims.UserID, moduleTitle, &model.StudyData{
		Notes:               req.Notes,
		Flashcards:          req.Flashcards,
		Quizzes:             req.Quizzes,
		IntegratedResources: req.IntegratedResources,
	})

	util.Success(ctx, nil)
}

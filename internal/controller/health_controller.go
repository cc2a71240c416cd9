package controller

import (
	"net/http"

	"learning_path_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// Check godoc
// @Summary 健康检查
// @Description 检查数据库与 Redis 连接状态
// @Tags 系统
// @Produce  json
// @Success 200 {object} util.Response{data=object} "服务正常"
// @Failure 503 {object} util.Response "依赖不可用"
// @Router /api/health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := gin.H{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		status["database"] = "unavailable"
		healthy = false
	}

	if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
		status["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, util.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "degraded",
			Data:    status,
		})
		return
	}

	util.Success(ctx, status)
}

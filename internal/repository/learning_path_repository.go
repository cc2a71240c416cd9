package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"learning_path_backend/internal/model"
	"learning_path_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	PathCreated = "created"
	PathUpdated = "updated"
	PathDeleted = "deleted"
)

// PathChangeEvent 写入成功后广播的变更事件，供 watch 订阅端重新拉取快照
type PathChangeEvent struct {
	Action string `json:"action"`
	PathID string `json:"pathId"`
}

type LearningPathRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewLearningPathRepository(db *gorm.DB, rdb *redis.Client) *LearningPathRepository {
	return &LearningPathRepository{DB: db, Redis: rdb}
}

func changeChannel(userID uint) string {
	return fmt.Sprintf("learning_paths:events:%d", userID)
}

func (r *LearningPathRepository) Create(path *model.LearningPath) error {
	if err := r.DB.Create(path).Error; err != nil {
		return err
	}
	r.publish(path.UserID, PathCreated, path.ID)
	return nil
}

// FindByUserID 返回用户全部路径，不依赖存储端排序，排序在服务层完成
func (r *LearningPathRepository) FindByUserID(userID uint) ([]model.LearningPath, error) {
	var paths []model.LearningPath
	err := r.DB.Where("user_id = ?", userID).Find(&paths).Error
	return paths, err
}

func (r *LearningPathRepository) FindByIDAndUserID(id string, userID uint) (*model.LearningPath, error) {
	var path model.LearningPath
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&path).Error
	if err != nil {
		return nil, err
	}
	return &path, nil
}

// Save 整行覆盖写，对应文档存储的 last-writer-wins 更新
func (r *LearningPathRepository) Save(path *model.LearningPath) error {
	if err := r.DB.Save(path).Error; err != nil {
		return err
	}
	r.publish(path.UserID, PathUpdated, path.ID)
	return nil
}

func (r *LearningPathRepository) Delete(id string, userID uint) error {
	result := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&model.LearningPath{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publish(userID, PathDeleted, id)
	return nil
}

// Subscribe 订阅某用户的路径变更，由调用方负责 Close
func (r *LearningPathRepository) Subscribe(ctx context.Context, userID uint) *redis.PubSub {
	return r.Redis.Subscribe(ctx, changeChannel(userID))
}

// publish 尽力而为，通知失败不影响已完成的写入
func (r *LearningPathRepository) publish(userID uint, action, pathID string) {
	payload, err := json.Marshal(PathChangeEvent{Action: action, PathID: pathID})
	if err != nil {
		return
	}
	if err := r.Redis.Publish(context.Background(), changeChannel(userID), payload).Err(); err != nil {
		logger.Log.Warn("Failed to publish path change event", zap.Error(err))
	}
}

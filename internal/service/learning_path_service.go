package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"learning_path_backend/internal/model"
	"learning_path_backend/internal/repository"
	"learning_path_backend/internal/util"

	"gorm.io/gorm"
)

type LearningPathService struct {
	Repo      *repository.LearningPathRepository
	Generator *GeneratorService
}

func NewLearningPathService(repo *repository.LearningPathRepository, generator *GeneratorService) *LearningPathService {
	return &LearningPathService{Repo: repo, Generator: generator}
}

// GenerateAndSave 生成一条新路径并持久化。生成失败时不写库
func (s *LearningPathService) GenerateAndSave(ctx context.Context, userID uint, req GenerateRequest) (*model.LearningPath, error) {
	modules, err := s.Generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	path := &model.LearningPath{
		UserID:             userID,
		Skill:              req.Skill,
		Proficiency:        req.Proficiency,
		DifficultyLevel:    req.DifficultyLevel,
		TimePerWeek:        req.TimePerWeek,
		TargetCompletion:   req.TargetCompletion,
		LearningStyle:      req.LearningStyles,
		LearningPreference: req.LearningPreferences,
		Modules:            modules,
		Progress:           model.ProgressMap{},
		Achievements:       model.AchievementList{},
		LastUpdated:        time.Now(),
	}

	if err := s.Repo.Create(path); err != nil {
		return nil, &util.PersistenceError{Op: "create learning path", Err: err}
	}
	return path, nil
}

// List 返回用户全部路径，按创建时间倒序
func (s *LearningPathService) List(userID uint) ([]model.LearningPath, error) {
	paths, err := s.Repo.FindByUserID(userID)
	if err != nil {
		return nil, &util.PersistenceError{Op: "list learning paths", Err: err}
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].CreatedAt.After(paths[j].CreatedAt)
	})
	return paths, nil
}

func (s *LearningPathService) Get(userID uint, pathID string) (*model.LearningPath, error) {
	path, err := s.Repo.FindByIDAndUserID(pathID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPathNotFound
		}
		return nil, &util.PersistenceError{Op: "load learning path", Err: err}
	}
	return path, nil
}

func (s *LearningPathService) Delete(userID uint, pathID string) error {
	err := s.Repo.Delete(pathID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrPathNotFound
		}
		return &util.PersistenceError{Op: "delete learning path", Err: err}
	}
	return nil
}

// Regenerate 用新表单重新生成同一条路径：模块与进度重置，已解锁的成就保留。
// 生成失败时原路径原样保留。
func (s *LearningPathService) Regenerate(ctx context.Context, userID uint, pathID string, req GenerateRequest) (*model.LearningPath, error) {
	path, err := s.Get(userID, pathID)
	if err != nil {
		return nil, err
	}

	modules, err := s.Generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	path.Skill = req.Skill
	path.Proficiency = req.Proficiency
	path.DifficultyLevel = req.DifficultyLevel
	path.TimePerWeek = req.TimePerWeek
	path.TargetCompletion = req.TargetCompletion
	path.LearningStyle = req.LearningStyles
	path.LearningPreference = req.LearningPreferences
	path.Modules = modules
	path.Progress = model.ProgressMap{}
	path.LastUpdated = time.Now()

	if err := s.Repo.Save(path); err != nil {
		return nil, &util.PersistenceError{Op: "regenerate learning path", Err: err}
	}
	return path, nil
}

package service

import (
	"errors"
	"math"
	"time"

	"learning_path_backend/internal/model"
	"learning_path_backend/internal/util"

	"gorm.io/gorm"
)

// Milestone 成就目录中的一项，按整体完成百分比解锁
type Milestone struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Threshold   int
}

// Milestones 固定成就目录。解锁后永不撤销，即使进度被取消勾选
var Milestones = []Milestone{
	{ID: "first_step", Name: "First Step", Description: "Complete your first learning step", Icon: "🎯", Threshold: 1},
	{ID: "quarter_way", Name: "Quarter Master", Description: "Complete 25% of your learning path", Icon: "🌟", Threshold: 25},
	{ID: "halfway_hero", Name: "Halfway Hero", Description: "Complete 50% of your learning path", Icon: "🚀", Threshold: 50},
	{ID: "three_quarters", Name: "Almost There", Description: "Complete 75% of your learning path", Icon: "💪", Threshold: 75},
	{ID: "completion_champion", Name: "Completion Champion", Description: "Complete 100% of your learning path", Icon: "🏆", Threshold: 100},
}

// StepCompleted 单步是否完成，缺省键视为未完成
func StepCompleted(progress model.ProgressMap, moduleIndex, topicIndex int) bool {
	return progress[model.StepKey(moduleIndex, topicIndex)]
}

// CountSteps 统计模块列表的总步数与已完成步数
func CountSteps(modules model.ModuleList, progress model.ProgressMap) (total, completed int) {
	for moduleIndex, m := range modules {
		for topicIndex := range m.SubTopics {
			total++
			if StepCompleted(progress, moduleIndex, topicIndex) {
				completed++
			}
		}
	}
	return total, completed
}

func roundPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// ModulePercentage 单模块完成百分比，零子主题模块恒为 0
func ModulePercentage(modules model.ModuleList, progress model.ProgressMap, moduleIndex int) int {
	if moduleIndex < 0 || moduleIndex >= len(modules) {
		return 0
	}
	total := len(modules[moduleIndex].SubTopics)
	completed := 0
	for topicIndex := range modules[moduleIndex].SubTopics {
		if StepCompleted(progress, moduleIndex, topicIndex) {
			completed++
		}
	}
	return roundPercent(completed, total)
}

// OverallPercentage 整条路径的完成百分比，无步骤时为 0
func OverallPercentage(modules model.ModuleList, progress model.ProgressMap) int {
	total, completed := CountSteps(modules, progress)
	return roundPercent(completed, total)
}

// EvaluateAchievements 返回本次新解锁的成就。重复执行不会产生重复项，
// 也不会改动已有成就的解锁时间；一次跨越多个阈值时共用同一 earnedAt。
func EvaluateAchievements(existing model.AchievementList, overallPercent int, now time.Time) []model.Achievement {
	earned := make(map[string]bool, len(existing))
	for _, a := range existing {
		earned[a.ID] = true
	}

	var newly []model.Achievement
	for _, m := range Milestones {
		if overallPercent >= m.Threshold && !earned[m.ID] {
			newly = append(newly, model.Achievement{
				ID:          m.ID,
				Name:        m.Name,
				Description: m.Description,
				Icon:        m.Icon,
				Threshold:   m.Threshold,
				EarnedAt:    now,
			})
		}
	}
	return newly
}

// pathStore ProgressService 所需的最小存储面
type pathStore interface {
	FindByIDAndUserID(id string, userID uint) (*model.LearningPath, error)
	Save(path *model.LearningPath) error
}

type ProgressService struct {
	Paths pathStore
}

func NewProgressService(paths pathStore) *ProgressService {
	return &ProgressService{Paths: paths}
}

// PathProgress 进度查询结果
type PathProgress struct {
	OverallPercentage int                   `json:"overallPercentage"`
	TotalSteps        int                   `json:"totalSteps"`
	CompletedSteps    int                   `json:"completedSteps"`
	Modules           []ModuleProgress      `json:"modules"`
	Achievements      model.AchievementList `json:"achievements"`
}

type ModuleProgress struct {
	ModuleIndex int    `json:"moduleIndex"`
	Title       string `json:"moduleTitle"`
	Percentage  int    `json:"percentage"`
	Completed   []bool `json:"completed"`
}

func (s *ProgressService) GetProgress(userID uint, pathID string) (*PathProgress, error) {
	path, err := s.Paths.FindByIDAndUserID(pathID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPathNotFound
		}
		return nil, &util.PersistenceError{Op: "load learning path", Err: err}
	}

	total, completed := CountSteps(path.Modules, path.Progress)
	result := &PathProgress{
		OverallPercentage: OverallPercentage(path.Modules, path.Progress),
		TotalSteps:        total,
		CompletedSteps:    completed,
		Achievements:      path.Achievements,
	}
	for moduleIndex, m := range path.Modules {
		mp := ModuleProgress{
			ModuleIndex: moduleIndex,
			Title:       m.Title,
			Percentage:  ModulePercentage(path.Modules, path.Progress, moduleIndex),
			Completed:   make([]bool, len(m.SubTopics)),
		}
		for topicIndex := range m.SubTopics {
			mp.Completed[topicIndex] = StepCompleted(path.Progress, moduleIndex, topicIndex)
		}
		result.Modules = append(result.Modules, mp)
	}
	return result, nil
}

// ToggleStep 切换一步的完成状态，整表覆盖持久化并重算成就。
// 持久化失败时内存中的修改全部回滚，不留下乐观状态。
func (s *ProgressService) ToggleStep(userID uint, pathID string, moduleIndex, topicIndex int) (*model.LearningPath, error) {
	path, err := s.Paths.FindByIDAndUserID(pathID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPathNotFound
		}
		return nil, &util.PersistenceError{Op: "load learning path", Err: err}
	}

	if moduleIndex < 0 || moduleIndex >= len(path.Modules) ||
		topicIndex < 0 || topicIndex >= len(path.Modules[moduleIndex].SubTopics) {
		return nil, util.ErrStepOutOfRange
	}

	if path.Progress == nil {
		path.Progress = model.ProgressMap{}
	}

	key := model.StepKey(moduleIndex, topicIndex)
	prev := path.Progress[key]
	prevUpdated := path.LastUpdated
	prevAchievements := path.Achievements

	now := time.Now()
	path.Progress[key] = !prev
	path.LastUpdated = now

	overall := OverallPercentage(path.Modules, path.Progress)
	if newly := EvaluateAchievements(path.Achievements, overall, now); len(newly) > 0 {
		path.Achievements = append(path.Achievements, newly...)
	}

	if err := s.Paths.Save(path); err != nil {
		path.Progress[key] = prev
		path.LastUpdated = prevUpdated
		path.Achievements = prevAchievements
		return nil, &util.PersistenceError{Op: "toggle step", Err: err}
	}

	return path, nil
}

package service

import (
	"sort"
	"time"

	"learning_path_backend/internal/model"
	"learning_path_backend/internal/repository"
	"learning_path_backend/internal/util"
)

// LearningAnalytics 跨路径统计，纯粹由一次快照计算得出
type LearningAnalytics struct {
	TotalPaths        int             `json:"totalPaths"`
	CompletedPaths    int             `json:"completedPaths"`
	InProgressPaths   int             `json:"inProgressPaths"`
	NotStartedPaths   int             `json:"notStartedPaths"`
	TotalSteps        int             `json:"totalSteps"`
	CompletedSteps    int             `json:"completedSteps"`
	AverageProgress   int             `json:"averageProgress"`
	TotalAchievements int             `json:"totalAchievements"`
	LearningStreak    int             `json:"learningStreak"`
	SkillsLearned     []string        `json:"skillsLearned"`
	RecentActivity    []ActivityEntry `json:"recentActivity"`
}

type ActivityEntry struct {
	Skill   string    `json:"skill"`
	Date    time.Time `json:"date"`
	DaysAgo int       `json:"daysAgo"`
}

type AnalyticsService struct {
	PathRepo *repository.LearningPathRepository
}

func NewAnalyticsService(pathRepo *repository.LearningPathRepository) *AnalyticsService {
	return &AnalyticsService{PathRepo: pathRepo}
}

func (s *AnalyticsService) GetUserAnalytics(userID uint) (*LearningAnalytics, error) {
	paths, err := s.PathRepo.FindByUserID(userID)
	if err != nil {
		return nil, &util.PersistenceError{Op: "load learning paths", Err: err}
	}
	return ComputeAnalytics(paths, time.Now()), nil
}

// ComputeAnalytics 对一次快照做全量聚合。now 只取一次，整个计算过程
// 内部的日界判断保持一致。
func ComputeAnalytics(paths []model.LearningPath, now time.Time) *LearningAnalytics {
	a := &LearningAnalytics{
		TotalPaths:     len(paths),
		SkillsLearned:  []string{},
		RecentActivity: []ActivityEntry{},
	}

	seenSkills := make(map[string]bool)
	activeDays := make(map[string]bool)
	streakCutoff := now.AddDate(0, 0, -30)

	for _, path := range paths {
		if path.Skill != "" && !seenSkills[path.Skill] {
			seenSkills[path.Skill] = true
			a.SkillsLearned = append(a.SkillsLearned, path.Skill)
		}

		a.TotalAchievements += len(path.Achievements)

		total, completed := CountSteps(path.Modules, path.Progress)
		a.TotalSteps += total
		a.CompletedSteps += completed

		if total > 0 {
			switch {
			case completed == total:
				a.CompletedPaths++
			case completed > 0:
				a.InProgressPaths++
			}
		}

		if path.LastUpdated.IsZero() {
			continue
		}

		// 活跃天按自然日去重，同一天多次更新只计一次。
		// 这是 30 天窗口内的活跃天数，不是连续天数。
		if !path.LastUpdated.Before(streakCutoff) && !path.LastUpdated.After(now) {
			activeDays[path.LastUpdated.Format(util.DateFormat)] = true
		}

		daysAgo := int(now.Sub(path.LastUpdated).Hours() / 24)
		if daysAgo >= 0 && daysAgo <= 7 {
			a.RecentActivity = append(a.RecentActivity, ActivityEntry{
				Skill:   path.Skill,
				Date:    path.LastUpdated,
				DaysAgo: daysAgo,
			})
		}
	}

	sort.Slice(a.RecentActivity, func(i, j int) bool {
		return a.RecentActivity[i].Date.After(a.RecentActivity[j].Date)
	})
	if len(a.RecentActivity) > 5 {
		a.RecentActivity = a.RecentActivity[:5]
	}

	a.LearningStreak = len(activeDays)
	a.NotStartedPaths = a.TotalPaths - a.CompletedPaths - a.InProgressPaths

	// 按步数加权的平均进度，大路径的权重高于小路径
	a.AverageProgress = roundPercent(a.CompletedSteps, a.TotalSteps)

	return a
}

package service

import (
	"testing"
	"time"

	"learning_path_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathWith(skill string, lastUpdated time.Time, subTopics int, completed int) model.LearningPath {
	p := model.LearningPath{
		Skill:        skill,
		Modules:      model.ModuleList{{Title: skill, SubTopics: make([]string, subTopics)}},
		Progress:     model.ProgressMap{},
		Achievements: model.AchievementList{},
		LastUpdated:  lastUpdated,
	}
	for i := 0; i < completed; i++ {
		p.Progress[model.StepKey(0, i)] = true
	}
	return p
}

func TestComputeAnalyticsEmpty(t *testing.T) {
	a := ComputeAnalytics(nil, time.Now())

	assert.Equal(t, 0, a.TotalPaths)
	assert.Equal(t, 0, a.AverageProgress)
	assert.Equal(t, 0, a.LearningStreak)
	assert.Empty(t, a.SkillsLearned)
	assert.Empty(t, a.RecentActivity)
}

func TestComputeAnalyticsPathBuckets(t *testing.T) {
	now := time.Now()
	paths := []model.LearningPath{
		pathWith("Go", now, 4, 4),     // 完成
		pathWith("Rust", now, 4, 2),   // 进行中
		pathWith("SQL", now, 4, 0),    // 未开始
		pathWith("Docker", now, 0, 0), // 无步骤，视为未开始
	}

	a := ComputeAnalytics(paths, now)

	assert.Equal(t, 4, a.TotalPaths)
	assert.Equal(t, 1, a.CompletedPaths)
	assert.Equal(t, 1, a.InProgressPaths)
	assert.Equal(t, 2, a.NotStartedPaths)
	assert.Equal(t, 12, a.TotalSteps)
	assert.Equal(t, 6, a.CompletedSteps)
}

func TestComputeAnalyticsWeightedAverage(t *testing.T) {
	now := time.Now()
	// 10 步完成 10 + 2 步完成 0：按步加权为 10/12 ≈ 83，而非路径均值 50
	big := pathWith("Go", now, 10, 10)
	small := pathWith("Rust", now, 2, 0)

	a := ComputeAnalytics([]model.LearningPath{big, small}, now)
	assert.Equal(t, 83, a.AverageProgress)
}

func TestComputeAnalyticsStreakCountsDistinctDays(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	paths := []model.LearningPath{
		pathWith("Go", now.Add(-2*time.Hour), 1, 0),          // 今天
		pathWith("Rust", now.Add(-3*time.Hour), 1, 0),        // 今天，同一天只计一次
		pathWith("SQL", now.AddDate(0, 0, -5), 1, 0),         // 5 天前
		pathWith("Docker", now.AddDate(0, 0, -31), 1, 0),     // 窗口外
		pathWith("K8s", time.Time{}, 1, 0),                   // 从未更新
		pathWith("Linux", now.AddDate(0, 0, -29), 1, 0),      // 窗口内边缘
	}

	a := ComputeAnalytics(paths, now)
	assert.Equal(t, 3, a.LearningStreak)
}

func TestComputeAnalyticsRecentActivity(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	paths := []model.LearningPath{
		pathWith("Go", now.AddDate(0, 0, -1), 1, 0),
		pathWith("Rust", now.AddDate(0, 0, -3), 1, 0),
		pathWith("SQL", now.AddDate(0, 0, -10), 1, 0), // 超出 7 天窗口
		pathWith("Docker", now.Add(-time.Hour), 1, 0),
	}

	a := ComputeAnalytics(paths, now)

	require.Len(t, a.RecentActivity, 3)
	// 按时间倒序
	assert.Equal(t, "Docker", a.RecentActivity[0].Skill)
	assert.Equal(t, "Go", a.RecentActivity[1].Skill)
	assert.Equal(t, "Rust", a.RecentActivity[2].Skill)

	assert.Equal(t, 0, a.RecentActivity[0].DaysAgo)
	assert.Equal(t, 1, a.RecentActivity[1].DaysAgo)
	assert.Equal(t, 3, a.RecentActivity[2].DaysAgo)
}

func TestComputeAnalyticsRecentActivityCapped(t *testing.T) {
	now := time.Now()
	var paths []model.LearningPath
	for i := 0; i < 8; i++ {
		paths = append(paths, pathWith("Skill", now.Add(-time.Duration(i)*time.Hour), 1, 0))
	}

	a := ComputeAnalytics(paths, now)
	assert.Len(t, a.RecentActivity, 5)
}

func TestComputeAnalyticsSkillsFirstSeenOrder(t *testing.T) {
	now := time.Now()
	paths := []model.LearningPath{
		pathWith("Go", now, 1, 0),
		pathWith("Rust", now, 1, 0),
		pathWith("Go", now, 1, 0), // 重复技能去重
	}

	a := ComputeAnalytics(paths, now)
	assert.Equal(t, []string{"Go", "Rust"}, a.SkillsLearned)
}

func TestComputeAnalyticsAchievementsTotal(t *testing.T) {
	now := time.Now()
	p1 := pathWith("Go", now, 1, 0)
	p1.Achievements = model.AchievementList{{ID: "first_step"}, {ID: "quarter_way"}}
	p2 := pathWith("Rust", now, 1, 0)
	p2.Achievements = model.AchievementList{{ID: "first_step"}}

	a := ComputeAnalytics([]model.LearningPath{p1, p2}, now)
	assert.Equal(t, 3, a.TotalAchievements)
}

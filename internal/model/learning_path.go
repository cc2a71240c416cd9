package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// RecommendedBook 书籍推荐
type RecommendedBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// RecommendedCourse 在线课程推荐
type RecommendedCourse struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
}

// RecommendedVideo YouTube 视频推荐
type RecommendedVideo struct {
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
}

// Module 学习路径中的一个课程单元，内容由 AI 生成后不再修改
type Module struct {
	Title                    string              `json:"moduleTitle"`
	Description              string              `json:"description"`
	SubTopics                []string            `json:"subTopics"`
	SuggestedResourceType    string              `json:"suggestedResourceType"`
	RecommendedBooks         []RecommendedBook   `json:"recommendedBooks"`
	RecommendedCourses       []RecommendedCourse `json:"recommendedCourses"`
	RecommendedYouTubeVideos []RecommendedVideo  `json:"recommendedYouTubeVideos"`
	EstimatedHours           float64             `json:"estimatedHours"`
	WeeklySchedule           string              `json:"weeklySchedule"`
	DifficultyRating         int                 `json:"difficultyRating"`
	LearningTips             []string            `json:"learningTips"`
}

// Achievement 已解锁的里程碑，只增不减
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Threshold   int       `json:"threshold"`
	EarnedAt    time.Time `json:"earnedAt"`
}

type ModuleList []Module

func (m ModuleList) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ModuleList) Scan(src interface{}) error  { return jsonScan(src, m) }

// ProgressMap 步骤完成表，键为 "模块下标-子主题下标"，缺省即未完成
type ProgressMap map[string]bool

func (p ProgressMap) Value() (driver.Value, error) { return jsonValue(p) }
func (p *ProgressMap) Scan(src interface{}) error  { return jsonScan(src, p) }

type AchievementList []Achievement

func (a AchievementList) Value() (driver.Value, error) { return jsonValue(a) }
func (a *AchievementList) Scan(src interface{}) error  { return jsonScan(src, a) }

type StringList []string

func (s StringList) Value() (driver.Value, error) { return jsonValue(s) }
func (s *StringList) Scan(src interface{}) error  { return jsonScan(src, s) }

// swagger:model LearningPath
// LearningPath 用户的一条个性化学习路径。嵌套结构存储为 JSON 列，
// 进度与成就的更新按整行覆盖写入（last-writer-wins）。
type LearningPath struct {
	UUIDBase
	UserID             uint            `gorm:"index;type:bigint unsigned" json:"-"`
	Skill              string          `gorm:"size:255;not null" json:"skill"`
	Proficiency        string          `gorm:"size:50" json:"proficiency"`
	DifficultyLevel    string          `gorm:"size:50" json:"difficultyLevel"`
	TimePerWeek        string          `gorm:"size:50" json:"timePerWeek"`
	TargetCompletion   string          `gorm:"size:100" json:"targetCompletion"`
	LearningStyle      StringList      `gorm:"type:json" json:"learningStyle"`
	LearningPreference StringList      `gorm:"type:json" json:"learningPreference"`
	Modules            ModuleList      `gorm:"type:json" json:"path"`
	Progress           ProgressMap     `gorm:"type:json" json:"progress"`
	Achievements       AchievementList `gorm:"type:json" json:"achievements"`
	LastUpdated        time.Time       `json:"lastUpdated"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// StepKey 组合进度键
func StepKey(moduleIndex, topicIndex int) string {
	return fmt.Sprintf("%d-%d", moduleIndex, topicIndex)
}

package model

import (
	"database/sql/driver"
	"time"
)

// Flashcard 用户自建的记忆卡片
type Flashcard struct {
	ID         int64  `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	Difficulty string `json:"difficulty"`
}

// QuizQuestion 模块自测题
type QuizQuestion struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// IntegratedResource 用户挂接的外部学习资源
type IntegratedResource struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type FlashcardList []Flashcard

func (f FlashcardList) Value() (driver.Value, error) { return jsonValue(f) }
func (f *FlashcardList) Scan(src interface{}) error  { return jsonScan(src, f) }

type QuizList []QuizQuestion

func (q QuizList) Value() (driver.Value, error) { return jsonValue(q) }
func (q *QuizList) Scan(src interface{}) error  { return jsonScan(src, q) }

type ResourceList []IntegratedResource

func (r ResourceList) Value() (driver.Value, error) { return jsonValue(r) }
func (r *ResourceList) Scan(src interface{}) error  { return jsonScan(src, r) }

// swagger:model StudyData
// StudyData 每个用户、每个模块一份的学习工具数据（笔记/卡片/测验/外部资源）。
// 生命周期独立于学习路径，按 (userId, moduleTitle) 定位。
type StudyData struct {
	UUIDBase
	UserID              uint          `gorm:"uniqueIndex:idx_user_module;type:bigint unsigned" json:"-"`
	ModuleTitle         string        `gorm:"uniqueIndex:idx_user_module;size:255;not null" json:"moduleTitle"`
	Notes               string        `gorm:"type:longtext" json:"notes"`
	Flashcards          FlashcardList `gorm:"type:json" json:"flashcards"`
	Quizzes             QuizList      `gorm:"type:json" json:"quizzes"`
	IntegratedResources ResourceList  `gorm:"type:json" json:"integratedResources"`
	LastUpdated         time.Time     `json:"lastUpdated"`
}

func (StudyData) TableName() string {
	return "study_data"
}

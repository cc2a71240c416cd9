package service

import (
	"strings"
	"testing"
	"time"

	"learning_path_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportPath() *model.LearningPath {
	p := &model.LearningPath{
		Skill:       "Machine Learning",
		Proficiency: "beginner",
		TimePerWeek: "10",
		Modules: model.ModuleList{
			{
				Title:                 "Foundations",
				Description:           "Linear algebra and statistics.",
				SubTopics:             []string{"vectors", "probability"},
				SuggestedResourceType: "video",
				EstimatedHours:        6,
				WeeklySchedule:        "2h on weekdays",
				DifficultyRating:      2,
				RecommendedBooks:      []model.RecommendedBook{{Title: "ISL", Author: "James et al."}},
				LearningTips:          []string{"practice daily"},
			},
			{
				Title:       "Models",
				Description: "Core algorithms.",
				SubTopics:   []string{"regression"},
				// estimatedHours 缺省
			},
		},
	}
	p.ID = "path-1"
	return p
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "machine_learning_learning_path.pdf", PDFFileName("Machine Learning"))
	assert.Equal(t, "c___basics_learning_schedule.ics", ICSFileName("C++ Basics"))
}

func TestGeneratePDF(t *testing.T) {
	svc := NewExportService()
	data, err := svc.GeneratePDF(exportPath(), time.Now())

	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestGenerateCalendarEvents(t *testing.T) {
	svc := NewExportService()
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	data, err := svc.GenerateCalendar(exportPath(), now)
	require.NoError(t, err)

	ical := string(data)
	assert.Contains(t, ical, "BEGIN:VCALENDAR")
	assert.Contains(t, ical, "METHOD:PUBLISH")
	assert.Contains(t, ical, "PRODID:-//Personal Learning Path Generator//EN")
	assert.Contains(t, ical, "SUMMARY:Foundations - Machine Learning")
	assert.Contains(t, ical, "SUMMARY:Models - Machine Learning")
	assert.Contains(t, ical, "LOCATION:Online Learning")
	assert.Contains(t, ical, "STATUS:CONFIRMED")

	// 第一个模块从次日开始，时长 6 小时
	assert.Contains(t, ical, "DTSTART:20260821T090000Z")
	assert.Contains(t, ical, "DTEND:20260821T150000Z")

	// 第二个模块一周后开始，无 estimatedHours 时默认 2 小时
	assert.Contains(t, ical, "DTSTART:20260828T090000Z")
	assert.Contains(t, ical, "DTEND:20260828T110000Z")
}

func TestGenerateCalendarDescription(t *testing.T) {
	desc := calendarDescription(exportPath().Modules[0])

	assert.Contains(t, desc, "Linear algebra and statistics.")
	assert.Contains(t, desc, "Topics: vectors, probability")
	assert.Contains(t, desc, "Resource: video")
	assert.Contains(t, desc, "ISL by James et al.")
}

func TestGenerateCalendarNoTopics(t *testing.T) {
	desc := calendarDescription(model.Module{Description: "d"})
	assert.Contains(t, desc, "Topics: N/A")
}

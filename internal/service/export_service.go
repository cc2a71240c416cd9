package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"learning_path_backend/internal/model"
	"learning_path_backend/internal/util"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

const defaultModuleHours = 2

// ExportService 将学习路径渲染为 PDF 文档或 ICS 日历
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func PDFFileName(skill string) string {
	return util.SafeFileName(skill) + "_learning_path.pdf"
}

func ICSFileName(skill string) string {
	return util.SafeFileName(skill) + "_learning_schedule.ics"
}

// GeneratePDF 渲染完整路径文档。gofpdf 只支持 Latin-1，
// 段落标签一律使用纯 ASCII。
func (s *ExportService) GeneratePDF(path *model.LearningPath, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	writeLine := func(text string, size float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.MultiCell(0, size*0.5, text, "", "L", false)
		pdf.Ln(2)
	}

	writeLine("Learning Path: "+path.Skill, 20, true)
	writeLine("Proficiency Level: "+path.Proficiency, 14, false)
	if len(path.LearningStyle) > 0 {
		writeLine("Learning Styles: "+strings.Join(path.LearningStyle, ", "), 12, false)
	}
	if path.TimePerWeek != "" {
		writeLine("Time Commitment: "+path.TimePerWeek+" hours per week", 12, false)
	}
	if path.TargetCompletion != "" {
		writeLine("Target Completion: "+path.TargetCompletion, 12, false)
	}

	pdf.Ln(6)
	writeLine("Learning Modules:", 16, true)
	pdf.Ln(2)

	for i, m := range path.Modules {
		writeLine(fmt.Sprintf("%d. %s", i+1, m.Title), 14, true)
		writeLine(m.Description, 11, false)

		if m.EstimatedHours > 0 {
			writeLine(fmt.Sprintf("Estimated Time: %g hours", m.EstimatedHours), 10, false)
		}
		if m.DifficultyRating > 0 {
			writeLine(fmt.Sprintf("Difficulty: %d/5", m.DifficultyRating), 10, false)
		}
		if m.WeeklySchedule != "" {
			writeLine("Weekly Schedule: "+m.WeeklySchedule, 10, false)
		}

		if len(m.SubTopics) > 0 {
			writeLine("Topics to Cover:", 11, true)
			for _, topic := range m.SubTopics {
				writeLine("- "+topic, 10, false)
			}
		}

		if len(m.RecommendedBooks) > 0 {
			writeLine("Recommended Books:", 11, true)
			for _, book := range m.RecommendedBooks {
				writeLine(fmt.Sprintf("- %s by %s", book.Title, book.Author), 10, false)
			}
		}

		if len(m.RecommendedCourses) > 0 {
			writeLine("Recommended Courses:", 11, true)
			for _, course := range m.RecommendedCourses {
				writeLine(fmt.Sprintf("- %s on %s", course.Title, course.Platform), 10, false)
			}
		}

		if len(m.RecommendedYouTubeVideos) > 0 {
			writeLine("Recommended YouTube Videos:", 11, true)
			for _, video := range m.RecommendedYouTubeVideos {
				writeLine(fmt.Sprintf("- %s by %s", video.Title, video.Channel), 10, false)
				if video.Description != "" {
					writeLine("  "+video.Description, 9, false)
				}
			}
		}

		if len(m.LearningTips) > 0 {
			writeLine("Learning Tips:", 11, true)
			for _, tip := range m.LearningTips {
				writeLine("- "+tip, 10, false)
			}
		}

		writeLine("Suggested Resource: "+m.SuggestedResourceType, 10, false)
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetY(-15)
	pdf.CellFormat(0, 10, fmt.Sprintf("Generated on %s by Personal Learning Path Generator", now.Format(util.DateFormat)), "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateCalendar 为每个模块排一个周度学习事件：第 i 个模块从
// now 起第 i 周的次日开始，时长取 estimatedHours，缺省 2 小时。
func (s *ExportService) GenerateCalendar(path *model.LearningPath, now time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Personal Learning Path Generator//EN")
	cal.SetCalscale("GREGORIAN")

	for i, m := range path.Modules {
		start := now.AddDate(0, 0, i*7+1)
		hours := m.EstimatedHours
		if hours <= 0 {
			hours = defaultModuleHours
		}
		end := start.Add(time.Duration(hours * float64(time.Hour)))

		event := cal.AddEvent(fmt.Sprintf("%s@learningpath", uuid.NewString()))
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("%s - %s", m.Title, path.Skill))
		event.SetLocation("Online Learning")
		event.SetStatus(ics.ObjectStatusConfirmed)
		event.SetDtStampTime(now)
		event.SetDescription(calendarDescription(m))
	}

	return []byte(cal.Serialize()), nil
}

func calendarDescription(m model.Module) string {
	var b strings.Builder
	b.WriteString(m.Description)

	topics := "N/A"
	if len(m.SubTopics) > 0 {
		topics = strings.Join(m.SubTopics, ", ")
	}
	fmt.Fprintf(&b, "\n\nTopics: %s\n\nResource: %s", topics, m.SuggestedResourceType)

	if len(m.RecommendedBooks) > 0 {
		b.WriteString("\n\nRecommended Books:")
		for _, book := range m.RecommendedBooks {
			fmt.Fprintf(&b, "\n- %s by %s", book.Title, book.Author)
		}
	}
	if len(m.RecommendedCourses) > 0 {
		b.WriteString("\n\nRecommended Courses:")
		for _, course := range m.RecommendedCourses {
			fmt.Fprintf(&b, "\n- %s on %s", course.Title, course.Platform)
		}
	}
	if len(m.RecommendedYouTubeVideos) > 0 {
		b.WriteString("\n\nRecommended YouTube Videos:")
		for _, video := range m.RecommendedYouTubeVideos {
			fmt.Fprintf(&b, "\n- %s by %s", video.Title, video.Channel)
		}
	}
	return b.String()
}

package sheets

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/entity"
)

// Fixed tab layouts. One header row; data from row 2.
//
//	Teachers      A:E  id, name, is_active, is_deleted, created_at
//	Students      A:I  id, name, age, current_surah, teacher_id, is_active, is_deleted, created_at, updated_at
//	DailyProgress A:J  id, student_id, hijri_date, hijri_month, day_number,
//	                   pages_memorized, pages_reviewed, attendance_only, notes, created_at
type layout struct {
	tab     string
	lastCol string
}

var layouts = map[entity.Kind]layout{
	entity.KindTeachers:      {tab: "Teachers", lastCol: "E"},
	entity.KindStudents:      {tab: "Students", lastCol: "I"},
	entity.KindDailyProgress: {tab: "DailyProgress", lastCol: "J"},
}

func (l layout) dataRange() string {
	return l.tab + "!A2:" + l.lastCol
}

func (l layout) appendRange() string {
	return l.tab + "!A:" + l.lastCol
}

func (l layout) rowRange(row int) string {
	return l.tab + "!A" + strconv.Itoa(row) + ":" + l.lastCol + strconv.Itoa(row)
}

// Cell coercion. The values API returns strings for USER_ENTERED cells, but
// numbers come back as JSON numbers when the cell is numeric.

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

func cellFloat(v any) float64 {
	switch c := v.(type) {
	case float64:
		return c
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(c), 64)
		return f
	default:
		return 0
	}
}

func cellInt(v any) int {
	return int(cellFloat(v))
}

// cellBool reads the 0/1 flag columns.
func cellBool(v any) bool {
	return cellInt(v) == 1
}

func cellTime(v any) time.Time {
	t, err := time.Parse(time.RFC3339, cellString(v))
	if err != nil {
		return time.Time{}
	}

	return t
}

func flag(b bool) int {
	if b {
		return 1
	}

	return 0
}

func cell(row []any, i int) any {
	if i >= len(row) {
		return nil
	}

	return row[i]
}

func rowToTeacher(row []any) entity.Teacher {
	id, _ := uuid.Parse(cellString(cell(row, 0)))

	return entity.Teacher{
		ID:        id,
		Name:      cellString(cell(row, 1)),
		IsActive:  cellBool(cell(row, 2)),
		IsDeleted: cellBool(cell(row, 3)),
		CreatedAt: cellTime(cell(row, 4)),
	}
}

func teacherToRow(t entity.Teacher) []any {
	return []any{t.ID.String(), t.Name, flag(t.IsActive), flag(t.IsDeleted),
		t.CreatedAt.Format(time.RFC3339)}
}

func rowToStudent(row []any) entity.Student {
	id, _ := uuid.Parse(cellString(cell(row, 0)))

	s := entity.Student{
		ID:           id,
		Name:         cellString(cell(row, 1)),
		CurrentSurah: cellString(cell(row, 3)),
		IsActive:     cellBool(cell(row, 5)),
		IsDeleted:    cellBool(cell(row, 6)),
		CreatedAt:    cellTime(cell(row, 7)),
		UpdatedAt:    cellTime(cell(row, 8)),
	}

	if v := cellString(cell(row, 2)); v != "" {
		age := cellInt(cell(row, 2))
		s.Age = &age
	}

	if v := cellString(cell(row, 4)); v != "" {
		if tid, err := uuid.Parse(v); err == nil {
			s.TeacherID = &tid
		}
	}

	return s
}

func studentToRow(s entity.Student) []any {
	age := any("")
	if s.Age != nil {
		age = *s.Age
	}

	teacherID := ""
	if s.TeacherID != nil {
		teacherID = s.TeacherID.String()
	}

	return []any{s.ID.String(), s.Name, age, s.CurrentSurah, teacherID,
		flag(s.IsActive), flag(s.IsDeleted),
		s.CreatedAt.Format(time.RFC3339), s.UpdatedAt.Format(time.RFC3339)}
}

func rowToProgress(row []any) entity.DailyProgress {
	id, _ := uuid.Parse(cellString(cell(row, 0)))
	studentID, _ := uuid.Parse(cellString(cell(row, 1)))

	return entity.DailyProgress{
		ID:             id,
		StudentID:      studentID,
		HijriDate:      cellString(cell(row, 2)),
		HijriMonth:     cellString(cell(row, 3)),
		DayNumber:      cellInt(cell(row, 4)),
		PagesMemorized: cellFloat(cell(row, 5)),
		PagesReviewed:  cellFloat(cell(row, 6)),
		AttendanceOnly: cellBool(cell(row, 7)),
		Notes:          cellString(cell(row, 8)),
		CreatedAt:      cellTime(cell(row, 9)),
	}
}

func progressToRow(p entity.DailyProgress) []any {
	return []any{p.ID.String(), p.StudentID.String(), p.HijriDate, p.HijriMonth,
		p.DayNumber, p.PagesMemorized, p.PagesReviewed, flag(p.AttendanceOnly),
		p.Notes, p.CreatedAt.Format(time.RFC3339)}
}

// internal/app/dismissal/projection.go
package dismissal

import (
	"sort"
	"strings"

	"github.com/dalemusser/carline/internal/domain/models"
)

// PageSize is the number of calls shown per dashboard page.
const PageSize = 10

// TeacherAll is the teacher filter value that disables teacher filtering.
const TeacherAll = "All"

// RosterFilter selects and pages the calls a dashboard viewer sees.
type RosterFilter struct {
	HideDeparted bool
	Teacher      string // TeacherAll or empty means no teacher filter
	Page         int    // 1-based; out-of-range values are clamped
}

// RosterEntry is one call joined with the students sharing its tag.
type RosterEntry struct {
	Call     models.Call      `json:"call"`
	Students []models.Student `json:"students"`
}

// Roster is one page of the projected dashboard view.
type Roster struct {
	Entries       []RosterEntry `json:"entries"`
	CurrentPage   int           `json:"current_page"`
	TotalPages    int           `json:"total_pages"`
	TotalFiltered int           `json:"total_filtered"`
}

// ProjectRoster joins calls with students by exact tag, applies the filter,
// and returns the requested page. Calls are ordered newest first. The
// projection is pure; it never touches storage.
func ProjectRoster(calls []models.Call, students []models.Student, f RosterFilter) Roster {
	byTag := make(map[string][]models.Student, len(students))
	for _, st := range students {
		byTag[st.Tag] = append(byTag[st.Tag], st)
	}

	entries := make([]RosterEntry, 0, len(calls))
	for _, c := range calls {
		if f.HideDeparted && c.Departed() {
			continue
		}
		joined := byTag[c.Tag]
		if !teacherMatches(joined, f.Teacher) {
			continue
		}
		entries = append(entries, RosterEntry{Call: c, Students: joined})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Call.CalledAt.After(entries[j].Call.CalledAt)
	})

	total := len(entries)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Roster{
		Entries:       entries[start:end],
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalFiltered: total,
	}
}

// teacherMatches reports whether a call passes the teacher filter: at least
// one joined student must belong to that teacher, by exact name.
func teacherMatches(students []models.Student, teacher string) bool {
	if teacher == "" || teacher == TeacherAll {
		return true
	}
	for _, st := range students {
		if st.Teacher == teacher {
			return true
		}
	}
	return false
}

// TeacherNames returns the distinct teacher names on the roster, sorted.
// The dashboard uses this to populate the filter dropdown.
func TeacherNames(students []models.Student) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, st := range students {
		if st.Teacher == "" {
			continue
		}
		if _, ok := seen[st.Teacher]; ok {
			continue
		}
		seen[st.Teacher] = struct{}{}
		names = append(names, st.Teacher)
	}
	sort.Strings(names)
	return names
}

// DefaultTeacherFilter picks the initial teacher filter for a viewer.
// Teacher-role users whose display name matches a roster teacher
// (case-insensitively) start filtered to their own class; everyone else
// starts on TeacherAll.
func DefaultTeacherFilter(viewerName, viewerRole string, students []models.Student) string {
	if viewerRole != models.RoleTeacher {
		return TeacherAll
	}
	for _, name := range TeacherNames(students) {
		if strings.EqualFold(name, viewerName) {
			return name
		}
	}
	return TeacherAll
}

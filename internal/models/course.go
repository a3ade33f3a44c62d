package models

// Course is a catalog entry owned by the registrar backend. The Conflict
// flag is derived client-side and recomputed whenever the active selection
// changes; it is never persisted.
type Course struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Schedule   string `json:"schedule"`
	Instructor string `json:"instructor"`
	Units      int    `json:"units"`
	Program    string `json:"program,omitempty"`
	Semester   string `json:"semester,omitempty"`
	Conflict   bool   `json:"conflict"`
}

// Billing summarises tuition for the active selection.
type Billing struct {
	Units   int `json:"units"`
	PerUnit int `json:"perUnit"`
	Total   int `json:"total"`
}

// departmentLabels maps course-code prefixes to display labels. Prefixes
// without an entry fall back to the raw prefix.
var departmentLabels = map[string]string{
	"CS":   "Computer Science",
	"IT":   "Information Technology",
	"MATH": "Mathematics",
	"ENG":  "English",
}

// DepartmentForCode returns the department label for a course code,
// e.g. "CS101" -> "Computer Science".
func DepartmentForCode(code string) string {
	prefix := codePrefix(code)
	if label, ok := departmentLabels[prefix]; ok {
		return label
	}
	return prefix
}

func codePrefix(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] >= '0' && code[i] <= '9' {
			return code[:i]
		}
	}
	return code
}

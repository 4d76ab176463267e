package api

import "time"

// SectionUpdate is the collaborator's reply to POST /update_section.
type SectionUpdate struct {
	Success     bool   `json:"success"`
	Markdown    string `json:"markdown,omitempty"`
	HTMLPreview string `json:"html_preview,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Export is the reply to GET /export.
type Export struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename,omitempty"`
}

// SectionsStatus is the reply to GET /get_sections_status.
type SectionsStatus struct {
	Success bool            `json:"success,omitempty"`
	Status  map[string]bool `json:"status"`
	Error   string          `json:"error,omitempty"`
}

// UploadResult is the reply to POST /upload_structure.
type UploadResult struct {
	Success   bool   `json:"success"`
	Structure string `json:"structure,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ThemeResult is the reply to POST /update_theme.
type ThemeResult struct {
	Success bool   `json:"success"`
	Theme   string `json:"theme,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorBody is what the collaborator sends with a 4xx/5xx status.
type ErrorBody struct {
	Error string `json:"error"`
}

// Draft is the locally journaled copy of the last successfully saved section.
type Draft struct {
	Section     string    `json:"section"`
	Fields      []Field   `json:"fields"`
	Fingerprint string    `json:"fingerprint"`
	SavedAt     time.Time `json:"saved_at"`
}

// Field is one (name, value) pair of a section snapshot.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProjectType names one of the collaborator's project templates.
type ProjectType string

const (
	ProjectBackend    ProjectType = "backend"
	ProjectFrontend   ProjectType = "frontend"
	ProjectFullstack  ProjectType = "fullstack"
	ProjectMobile     ProjectType = "mobile"
	ProjectCybersec   ProjectType = "cybersec"
	ProjectNetwork    ProjectType = "network"
	ProjectFrameworks ProjectType = "frameworks"
)

// ProjectTypes lists the accepted project types in display order.
var ProjectTypes = []ProjectType{
	ProjectBackend, ProjectFrontend, ProjectFullstack, ProjectMobile,
	ProjectCybersec, ProjectNetwork, ProjectFrameworks,
}

// Valid reports whether p is a known project type.
func (p ProjectType) Valid() bool {
	for _, t := range ProjectTypes {
		if t == p {
			return true
		}
	}
	return false
}

// Description is a one-line summary shown when picking a project type.
func (p ProjectType) Description() string {
	switch p {
	case ProjectBackend:
		return "Services, APIs and systems focused on data processing and storage"
	case ProjectFrontend:
		return "User interfaces, sites and web apps focused on user experience"
	case ProjectFullstack:
		return "Complete applications integrating frontend and backend"
	case ProjectMobile:
		return "Apps for iOS, Android or cross-platform devices"
	case ProjectCybersec:
		return "Security tooling, vulnerability analysis and data protection"
	case ProjectNetwork:
		return "Network infrastructure, protocols and communication systems"
	case ProjectFrameworks:
		return "Libraries, frameworks and developer tooling"
	}
	return "Custom template"
}

// Themes accepted by POST /update_theme.
var Themes = []string{"default", "dark", "light", "cyberpunk", "minimalist", "retro", "neon", "corporate", "custom"}

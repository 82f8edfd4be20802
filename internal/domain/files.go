package domain

import "io"

// Logical subfolders used by the coursework record services.
const (
	SubfolderAssignments = "assignments"
	SubfolderSubmissions = "submissions"
	SubfolderProjects    = "projects"
)

// DefaultSubfolders lists the folders accepted when none are configured.
func DefaultSubfolders() []string {
	return []string{SubfolderAssignments, SubfolderSubmissions, SubfolderProjects}
}

// UploadRequest is a single, not yet validated upload. Filename and
// ContentType come straight from the end user.
type UploadRequest struct {
	Body        io.Reader
	Size        int64
	Filename    string
	ContentType string
	Subfolder   string
}

package store

import (
	"strings"
	"time"
)

// ImageType tags the encoding of an image payload.
type ImageType string

const (
	ImageJPEG ImageType = "JPEG"
	ImagePNG  ImageType = "PNG"
)

// ImageTypeFromMediaType maps a data-URI media type to an ImageType.
// Anything that is not image/jpeg is stored as PNG.
func ImageTypeFromMediaType(mediaType string) ImageType {
	if strings.HasPrefix(mediaType, "image/jpeg") {
		return ImageJPEG
	}
	return ImagePNG
}

type Image struct {
	ID   int64
	Data []byte
	Type ImageType
}

type CaseStudy struct {
	ID           int64
	Title        string
	ClientName   string
	ClientLink   string
	ClientLogoID *int64
	Industry     string
	ProjectType  string
	Summary      string

	// Rich-text fields. Stored content keeps img srcs in canonical
	// numeric-id form; the serve path rewrites them to links.
	ProblemDescription  string
	SolutionDescription string
	Outcomes            string
	ToolsUsed           string
	ProjectLearnings    string

	UpdatedAt time.Time
}

// RichTextFields returns pointers to the rich-text fields in their fixed
// document order, so callers iterate instead of enumerating field names.
func (c *CaseStudy) RichTextFields() []*string {
	return []*string{
		&c.ProblemDescription,
		&c.SolutionDescription,
		&c.Outcomes,
		&c.ToolsUsed,
		&c.ProjectLearnings,
	}
}

// Package contact turns a contact-form submission into a mailto: link. There
// is no delivery: the visitor's own mail client sends the message.
package contact

import (
	"errors"
	"fmt"
	"strings"

	"tutorpage/internal/courses"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "Tutoring Contact Form Submission"

var (
	ErrNameRequired    = errors.New("contact: name is required")
	ErrMessageRequired = errors.New("contact: message is required")
	ErrCourseRequired  = errors.New("contact: choose a course")
)

// Submission holds the contact-form fields.
type Submission struct {
	Name    string `json:"name"`
	Course  string `json:"course"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from the free-text fields.
func (s Submission) Normalize() Submission {
	s.Name = strings.TrimSpace(s.Name)
	s.Course = strings.TrimSpace(s.Course)
	s.Message = strings.TrimSpace(s.Message)
	return s
}

// Validate checks the submission against the selectable courses.
func (s Submission) Validate(list []courses.Course) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if s.Course == "" || !courses.Contains(list, s.Course) {
		errs = append(errs, ErrCourseRequired)
	}
	if s.Message == "" {
		errs = append(errs, ErrMessageRequired)
	}
	return errors.Join(errs...)
}

// Subject returns the mail subject line.
func (s Submission) Subject(prefix string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + " - " + s.Name
}

// Body returns the plain-text mail body.
func (s Submission) Body() string {
	return fmt.Sprintf("Name: %s\nCourse: %s\nMessage:\n%s", s.Name, s.Course, s.Message)
}

// BuildMailto returns mailto:<to>?subject=...&body=... with subject and body
// percent-encoded.
func BuildMailto(to, subjectPrefix string, s Submission) string {
	return "mailto:" + to +
		"?subject=" + EncodeURIComponent(s.Subject(subjectPrefix)) +
		"&body=" + EncodeURIComponent(s.Body())
}

// ThankYou is the confirmation shown after the mail client is opened.
func ThankYou(name string) string {
	return fmt.Sprintf("Thank you for reaching out %s! Your message has been opened in your email client, "+
		"feel free to send it as-is and I will get back to you asap.", name)
}

// EncodeURIComponent percent-encodes every byte except the unreserved set
// A-Z a-z 0-9 - _ . ! ~ * ' ( ). Spaces become %20, not "+".
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// Package courses holds the course dropdown shown on the contact form.
package courses

import "strings"

// Placeholder is the first, non-selectable dropdown entry.
const Placeholder = "-- choose the course --"

// Status tells a visitor how familiar the tutor is with a course.
type Status string

const (
	// StatusCompleted (✓): course completed.
	StatusCompleted Status = "completed"
	// StatusInProgress (~): currently taking the course.
	StatusInProgress Status = "in-progress"
	// StatusNotTaken (X): not taken yet, still happy to help.
	StatusNotTaken Status = "not-taken"
	// StatusNone: no marker (placeholder, "Other").
	StatusNone Status = ""
)

var markers = map[string]Status{
	"✓": StatusCompleted,
	"~": StatusInProgress,
	"X": StatusNotTaken,
}

// Course is one dropdown entry. Value is the raw configured string and is
// what the form submits.
type Course struct {
	Value  string `json:"value"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title"`
	Status Status `json:"status,omitempty"`
}

// IsPlaceholder reports whether c is the "choose the course" entry.
func (c Course) IsPlaceholder() bool {
	return c.Value == Placeholder
}

// Parse splits "COSC120 - Computer Science 1 ✓" into code, title and status.
// Entries without " - " keep the whole text as the title.
func Parse(value string) Course {
	c := Course{Value: value}
	rest := strings.TrimSpace(value)

	if i := strings.LastIndex(rest, " "); i >= 0 {
		if st, ok := markers[rest[i+1:]]; ok {
			c.Status = st
			rest = strings.TrimSpace(rest[:i])
		}
	}

	if code, title, ok := strings.Cut(rest, " - "); ok {
		c.Code = strings.TrimSpace(code)
		rest = title
	}
	c.Title = strings.TrimSpace(rest)
	return c
}

// ParseAll parses values in order, making sure the placeholder comes first.
func ParseAll(values []string) []Course {
	out := make([]Course, 0, len(values)+1)
	if len(values) == 0 || values[0] != Placeholder {
		out = append(out, Parse(Placeholder))
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, Parse(v))
	}
	return out
}

// Contains reports whether value is a selectable (non-placeholder) entry.
func Contains(list []Course, value string) bool {
	for _, c := range list {
		if c.Value == value && !c.IsPlaceholder() {
			return true
		}
	}
	return false
}

// Default returns the Fall '25 course list.
func Default() []string {
	return []string{
		Placeholder,
		"COSC116 - Intro to Computer Systems ✓",
		"COSC117 - Programming Fundementals ✓",
		"COSC118 - Intro to Scientific Programming ✓",
		"COSC120 - Computer Science 1 ✓",
		"COSC220 - Computer Science 2 / Intro to Data Structures and Algorithms ✓",
		"COSC250 - Microcomputer Organization ✓",
		"COSC290 - Special Topics: Generative AI for Everyone X",
		"COSC311 - Intro to Data Visualization and Interpretation ✓",
		"COSC320 - Advanced Data Structures & Algorithms ✓",
		"COSC350 - Systems Software ✓",
		"COSC362 - Theory of Computation ✓",
		"COSC386 - Database Design and Implementation ✓",
		"COSC411 - Artificial Intelligence ✓",
		"COSC420 - High-Performance Computing ~",
		"COSC425/426 - Software Engineering ✓",
		"COSC450 - Operating Systems ✓",
		"COSC490 - Special Topics: Convolutional Neural Nets X",
		"DSCI218 - Intro to Data Science X",
		"DSCI470 - Research Methods in Data Science ~",
		"DSCI490 - Capstone Project X",
		"Other/misc question",
	}
}

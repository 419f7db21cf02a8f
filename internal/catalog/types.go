package catalog

import "errors"

// ErrNotFound indicates no course matched the requested title.
var ErrNotFound = errors.New("course not found")

// Course is a catalog entry. Title is the canonical unique name used to key
// chunks and lessons.
type Course struct {
	ID         int64
	Title      string
	Link       string
	Instructor string
}

// Lesson is one numbered lesson of a course.
type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Outline is a course with its full lesson list, ordered by lesson number.
type Outline struct {
	Course  Course
	Lessons []Lesson
}

// Analytics summarizes the catalog for the courses endpoint.
type Analytics struct {
	TotalCourses int
	CourseTitles []string
}

package knowledge

import "time"

// VectorDimension is the embedding width of the chunks schema. Embedders must
// be configured to produce vectors of this size.
const VectorDimension = 768

// Chunk is one piece of course content to index. LessonNumber is nil for text
// that precedes the first lesson marker.
type Chunk struct {
	CourseID     int64
	LessonNumber *int
	Index        int
	Content      string
}

// Result is a single search hit. Link carries the lesson link when one exists,
// falling back to the course link, and may be empty.
type Result struct {
	CourseTitle  string
	LessonNumber *int
	Content      string
	Link         string
	Similarity   float32
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	courseID *int64
	lesson   *int
	limit    int
	timeout  time.Duration
}

// WithCourse restricts results to one course.
func WithCourse(courseID int64) SearchOption {
	return func(c *searchConfig) {
		c.courseID = &courseID
	}
}

// WithLesson restricts results to one lesson number.
func WithLesson(n int) SearchOption {
	return func(c *searchConfig) {
		c.lesson = &n
	}
}

// WithLimit sets the maximum number of results. Default is 5.
func WithLimit(k int) SearchOption {
	return func(c *searchConfig) {
		c.limit = k
	}
}

// WithTimeout overrides the search timeout. Default is 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		c.timeout = d
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		limit:   5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

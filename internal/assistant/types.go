package assistant

// Source is a citation record surfaced to the caller alongside an answer.
// Each tool execution returns the sources for its own hits; the registry
// keeps only the most recent execution per tool.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

package mqtt

import "time"

// Unallocated is a request row left short by a run.
type Unallocated struct {
	StudentID int    `json:"student_id"`
	SubjectID int    `json:"subject_id"`
	Deficit   int    `json:"deficit"`
	Reason    string `json:"reason"`
}

// RunNotice is the message published when a run finishes.
type RunNotice struct {
	RunID       string        `json:"run_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Outcome     string        `json:"outcome"`
	Status      string        `json:"status"`
	Requested   int           `json:"requested"`
	Placed      int           `json:"placed"`
	NewLessons  int           `json:"new_lessons"`
	Percent     float64       `json:"fulfillment_percent"`
	Unallocated []Unallocated `json:"unallocated,omitempty"`
}

// Publisher announces finished runs to downstream consumers.
type Publisher interface {
	PublishRun(n RunNotice) error
	Close()
}

// NopPublisher drops every notice.
type NopPublisher struct{}

func (NopPublisher) PublishRun(RunNotice) error { return nil }
func (NopPublisher) Close()                     {}

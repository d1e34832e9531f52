package core

// Status is the severity of a group of import messages.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Messages collects the localized outcome lines of one or more operations.
// Lists are never nil so they always encode as JSON arrays.
type Messages struct {
	Successes []string `json:"successes"`
	Warnings  []string `json:"warnings"`
	Errors    []string `json:"errors"`
}

func NewMessages() Messages {
	return Messages{Successes: []string{}, Warnings: []string{}, Errors: []string{}}
}

func (m *Messages) init() {
	if m.Successes == nil {
		m.Successes = []string{}
	}
	if m.Warnings == nil {
		m.Warnings = []string{}
	}
	if m.Errors == nil {
		m.Errors = []string{}
	}
}

func (m *Messages) Success(msg string) {
	m.init()
	m.Successes = append(m.Successes, msg)
}

func (m *Messages) Warning(msg string) {
	m.init()
	m.Warnings = append(m.Warnings, msg)
}

func (m *Messages) Error(msg string) {
	m.init()
	m.Errors = append(m.Errors, msg)
}

// Merge appends every list of `others` to the lists of m, in order.
func (m *Messages) Merge(others ...Messages) {
	m.init()
	for _, o := range others {
		m.Successes = append(m.Successes, o.Successes...)
		m.Warnings = append(m.Warnings, o.Warnings...)
		m.Errors = append(m.Errors, o.Errors...)
	}
}

// Status is error if any error was recorded, else warning if any warning was, else success.
func (m Messages) Status() Status {
	switch {
	case len(m.Errors) > 0:
		return StatusError
	case len(m.Warnings) > 0:
		return StatusWarning
	default:
		return StatusSuccess
	}
}

func (m Messages) IsEmpty() bool {
	return len(m.Successes) == 0 && len(m.Warnings) == 0 && len(m.Errors) == 0
}

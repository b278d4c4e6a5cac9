package controller

// State is the controller's position in the upload/poll/render cycle.
type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateUploading
	StateProcessing
	StateCompleted
	StateErrorDisplayed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file_selected"
	case StateUploading:
		return "uploading"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateErrorDisplayed:
		return "error_displayed"
	default:
		return "unknown"
	}
}

// Settled reports whether a processing run has finished, successfully or not.
func (s State) Settled() bool {
	return s == StateCompleted || s == StateErrorDisplayed
}

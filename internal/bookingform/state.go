package bookingform

// State is the lifecycle position of one open booking form.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Terminal reports whether the form has finished and accepts no further edits.
func (s State) Terminal() bool {
	return s == StateSuccess
}

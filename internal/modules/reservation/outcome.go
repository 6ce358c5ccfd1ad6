package reservation

// Outcome is the result of validating a proposed reservation. Rejections are
// first-class results, not errors: a busy site is normal operation.
type Outcome string

const (
	Accepted             Outcome = "accepted"
	RejectedOverlap      Outcome = "rejected_overlap"
	RejectedEmptyName    Outcome = "rejected_empty_name"
	RejectedInvalidRange Outcome = "rejected_invalid_range"
)

// Message is the user-facing text for each outcome. The three rejection
// messages match the ones the legacy dashboard rendered.
func (o Outcome) Message() string {
	switch o {
	case Accepted:
		return "Site available."
	case RejectedEmptyName:
		return "Missing reservation name."
	case RejectedOverlap:
		return "Invalid dates, this site is already busy."
	case RejectedInvalidRange:
		return "Invalid dates, end date must be later than start date."
	}
	return string(o)
}

package svg

// Outcome is the verdict of a sanitization run.
type Outcome int

const (
	// Accepted means the content was already clean and is returned unchanged.
	Accepted Outcome = iota
	// AcceptedModified means dangerous constructs were removed and the
	// returned bytes must be stored in place of the original.
	AcceptedModified
	// Rejected means the content must not be stored at all.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case AcceptedModified:
		return "accepted_modified"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Safe reports whether the outcome allows the bytes to be persisted.
// Accepted and AcceptedModified are equivalent for storage decisions.
func (o Outcome) Safe() bool {
	return o == Accepted || o == AcceptedModified
}

// ReasonInvalid is the rejection reason for content that is not usable SVG.
const ReasonInvalid = "not a valid SVG"

// Result is the outcome of Sanitize.
type Result struct {
	Outcome Outcome
	// Bytes is the content to store. Nil when Outcome is Rejected.
	Bytes []byte
	// Reason is set only when Outcome is Rejected.
	Reason string
	// Removed describes each construct that was stripped, in document order.
	Removed []string
}

func reject() Result {
	return Result{Outcome: Rejected, Reason: ReasonInvalid}
}

// Candidate is a single uploaded file as received from the host.
type Candidate struct {
	DeclaredType string
	Bytes        []byte
	FileName     string
}

package control

// Decision is the reviewer's verdict on one sampled invoice. A record
// starts Pending, moves freely between Approved and Rejected on repeated
// user action, and no state is terminal during a session.
type Decision string

const (
	DecisionPending  Decision = "Pending"
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

// DecisionRecord holds the reviewer's verdict and free-text comment for
// one sampled row. Records are created Pending at sample time and are
// only discarded by drawing a new sample.
type DecisionRecord struct {
	Decision Decision
	Comment  string
}

// Counts breaks the sample down by decision; the three always sum to the
// sample size.
type Counts struct {
	Approved int
	Rejected int
	Pending  int
}

// Total returns the sample size the counts cover.
func (c Counts) Total() int {
	return c.Approved + c.Rejected + c.Pending
}

package bookmark

import "context"

type toggleState int

const (
	toggleApplying toggleState = iota + 1
	toggleConfirmed
	toggleReverted
)

// toggle is one bookmark flip. It applies the desired state locally first,
// then asks the backend, and on failure puts the captured previous state
// back. prev is captured at creation, not re-read at revert time.
type toggle struct {
	jobID string
	next  bool
	prev  bool
	state toggleState
	apply func(jobID string, marked bool)
}

func (t *toggle) run(ctx context.Context, write func(ctx context.Context, jobID string, marked bool) error) error {
	t.state = toggleApplying
	t.apply(t.jobID, t.next)
	if err := write(ctx, t.jobID, t.next); err != nil {
		t.apply(t.jobID, t.prev)
		t.state = toggleReverted
		return err
	}
	t.state = toggleConfirmed
	return nil
}

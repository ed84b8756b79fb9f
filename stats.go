package vr

// Stats counts frame loop activity since the context opened.
type Stats struct {
	// Frames is the number of completed End calls.
	Frames uint64

	// EventsDispatched is the number of device events sent to listeners.
	EventsDispatched uint64

	// DrainLimitHits is the number of frames that left events queued
	// because of the per-frame drain bound. They are handled next frame.
	// For runtimes that do not implement tracking.EventBacklog, every frame
	// that reaches the bound is counted.
	DrainLimitHits uint64

	// InvalidHMDFrames is the number of frames the HMD pose was invalid
	// and the cameras kept their previous state.
	InvalidHMDFrames uint64

	// SubmitFailures is the number of eye submissions the compositor
	// rejected.
	SubmitFailures uint64
}

// Stats returns a snapshot of the frame counters.
func (c *Context) Stats() Stats {
	return c.stats
}

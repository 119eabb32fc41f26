package conbuf

// WaitReason tells a released reader why its wait ended.
type WaitReason uint32

const (
	WaitReasonCtrlC         WaitReason = 0x1
	WaitReasonCtrlBreak     WaitReason = 0x2
	WaitReasonThreadDying   WaitReason = 0x4
	WaitReasonHandleClosing WaitReason = 0x8
)

// String returns a short name for the reason, or "none" for zero.
func (r WaitReason) String() string {
	switch r {
	case 0:
		return "none"
	case WaitReasonCtrlC:
		return "ctrl_c"
	case WaitReasonCtrlBreak:
		return "ctrl_break"
	case WaitReasonThreadDying:
		return "thread_dying"
	case WaitReasonHandleClosing:
		return "handle_closing"
	default:
		return "multiple"
	}
}

// WaitQueue coordinates consumers blocked on an empty buffer. The buffer
// core only calls into it; the blocking itself lives in the collaborator.
type WaitQueue interface {
	// NotifyWaiters releases the current round of waiting readers so
	// they re-check for data. Called after every successful write.
	NotifyWaiters()

	// TerminateWaiters releases all waiting readers with a termination
	// reason. Released readers must give up instead of waiting again.
	TerminateWaiters(reason WaitReason)
}

// ReadySignal is the host's manual-reset readiness object. The buffer
// sets it only on the transition from empty to non-empty and resets it
// on flush.
type ReadySignal interface {
	Set()
	Reset()
}

// Codepage converts UTF-16 code units into the active narrow encoding.
type Codepage interface {
	// Narrow converts src into dst and returns the number of bytes
	// written. When dst cannot hold the whole conversion it fails with
	// an insufficient-target error; dst contents are unspecified after
	// any error.
	Narrow(dst []byte, src []uint16) (int, error)

	// ID returns the numeric identifier of the active code page.
	ID() uint32
}

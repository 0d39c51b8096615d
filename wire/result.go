package wire

// WriteResult is the outcome of a handle write. The session decides how to
// continue from it.
type WriteResult int

const (
	// WriteOK means the transport accepted the payload
	WriteOK WriteResult = iota
	// WriteUnsupported means the watch does not expose the handle; the
	// write was skipped
	WriteUnsupported
	// WriteRetryable means the link raced a watch-side disconnect; the
	// write most likely landed
	WriteRetryable
	// WriteFatal means the link is unusable
	WriteFatal
)

func (r WriteResult) String() string {
	switch r {
	case WriteOK:
		return "ok"
	case WriteUnsupported:
		return "unsupported"
	case WriteRetryable:
		return "retryable"
	case WriteFatal:
		return "fatal"
	}
	return "unknown"
}

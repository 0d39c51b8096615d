package casio

// WatchButton is the button the user pressed to start the connection
type WatchButton int

const (
	ButtonInvalid WatchButton = iota
	ButtonUpperLeft
	ButtonLowerLeft
	ButtonUpperRight
	ButtonLowerRight
	ButtonNone // watch connected on its own (auto time sync)
	ButtonFind
)

func (b WatchButton) String() string {
	switch b {
	case ButtonUpperLeft:
		return "UPPER_LEFT"
	case ButtonLowerLeft:
		return "LOWER_LEFT"
	case ButtonUpperRight:
		return "UPPER_RIGHT"
	case ButtonLowerRight:
		return "LOWER_RIGHT"
	case ButtonNone:
		return "NO_BUTTON"
	case ButtonFind:
		return "FIND"
	}
	return "INVALID"
}

const (
	buttonMinLen = 19
	buttonOffset = 8
)

// DecodeButton reads the button from a 0x10 notification. Buffers shorter
// than 19 bytes are INVALID. Unrecognised values map to LOWER_RIGHT so
// newer models still sync.
func DecodeButton(b []byte) WatchButton {
	if len(b) < buttonMinLen {
		return ButtonInvalid
	}
	switch b[buttonOffset] {
	case 0, 1:
		return ButtonLowerLeft
	case 4:
		return ButtonLowerRight
	case 3:
		return ButtonNone
	case 2:
		return ButtonFind
	default:
		return ButtonLowerRight
	}
}

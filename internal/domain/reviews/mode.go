package reviews

import "strings"

// Mode enum: how findings are produced.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeStub     Mode = "stub"
	ModeExternal Mode = "external"
)

// ParseMode validates a requested mode string. Empty means auto, matching
// the upload client. Anything else unknown is rejected before any work.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeAuto, nil
	case ModeAuto:
		return ModeAuto, nil
	case ModeStub:
		return ModeStub, nil
	case ModeExternal:
		return ModeExternal, nil
	default:
		return "", &InvalidModeError{Requested: s}
	}
}

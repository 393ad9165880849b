// SPDX-License-Identifier: EPL-2.0

package mixer

// State is the lifecycle state of a cue.
type State uint32

const (
	Stopped State = iota
	Playing
	Paused
	FadingIn
	FadingOut
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case FadingIn:
		return "fading_in"
	case FadingOut:
		return "fading_out"
	default:
		return "unknown"
	}
}

// Audible reports whether a cue in state s contributes samples.
func (s State) Audible() bool {
	return s == Playing || s == FadingIn || s == FadingOut
}

func (s State) fading() bool {
	return s == FadingIn || s == FadingOut
}

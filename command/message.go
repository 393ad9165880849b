// SPDX-License-Identifier: EPL-2.0

// Package command carries playback commands from control goroutines to the
// render goroutine.
//
// Messages are fixed-size values with no pointers to heap data, so pushing
// and popping one is a plain copy into a preallocated ring slot.
package command

import "github.com/ik5/cuemix/cueid"

// Kind discriminates a Message.
type Kind uint8

const (
	None Kind = iota
	StartCue
	StopCue
	PauseCue
	ResumeCue
	SetVolume // F = volume
	SetPan    // F = pan
	SetLoop   // I = 1 to loop
	FadeIn    // F = seconds
	FadeOut   // F = seconds
	Seek      // F = seconds
	LoadBuffer
	StartCrossfade // Cue = from, Target = to, F = seconds, I = curve
	QueueCrossfade // same payload as StartCrossfade
	StopCrossfade
	ClearCrossfades
	StopAll
	PauseAll
	ResumeAll
)

var kindNames = [...]string{
	None:            "none",
	StartCue:        "start_cue",
	StopCue:         "stop_cue",
	PauseCue:        "pause_cue",
	ResumeCue:       "resume_cue",
	SetVolume:       "set_volume",
	SetPan:          "set_pan",
	SetLoop:         "set_loop",
	FadeIn:          "fade_in",
	FadeOut:         "fade_out",
	Seek:            "seek",
	LoadBuffer:      "load_buffer",
	StartCrossfade:  "start_crossfade",
	QueueCrossfade:  "queue_crossfade",
	StopCrossfade:   "stop_crossfade",
	ClearCrossfades: "clear_crossfades",
	StopAll:         "stop_all",
	PauseAll:        "pause_all",
	ResumeAll:       "resume_all",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "unknown"
}

// Message is one queued command. Which fields are meaningful depends on
// Kind.
type Message struct {
	Kind   Kind
	Cue    cueid.ID
	Target cueid.ID
	F      float64
	I      int64
}

// SPDX-License-Identifier: EPL-2.0

// Package mixer holds loaded cues and mixes them into an output block.
//
// A Cue follows a small state machine:
//
//	STOPPED <-> PLAYING <-> PAUSED
//	PLAYING -> FADING_IN -> PLAYING
//	PLAYING -> FADING_OUT -> STOPPED
//
// Transitions outside that graph are ignored. Every cue renders additively
// into a zeroed buffer, so the bus output is the plain sum of its cues
// followed by the master gain.
//
// # Pan Law
//
// Channel 0 is scaled by 1-max(0,pan) and channel 1 by 1+min(0,pan);
// further channels are not panned. A mono clip feeds channels 0 and 1.
//
// # Threading
//
// The Bus separates the catalog, which control goroutines edit under a
// mutex and publish as copy-on-write snapshots, from playback state, which
// only the render goroutine touches. Render, Adopt and the *Cue methods
// never lock or allocate.
package mixer

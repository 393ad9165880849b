// SPDX-License-Identifier: EPL-2.0

// Package crossfade computes per-sample gain ramps between two cues.
//
// A crossfade of T samples gives the k-th rendered sample (k = 1..T) the
// progress p = k/T, so the last sample sits exactly on the end state. The
// gains multiply each cue's own volume; they never replace it.
//
//	Curve         out(p)          in(p)
//	EqualPower    cos(p·π/2)      sin(p·π/2)
//	Linear        1-p             p
//	Logarithmic   (1-p)²          p²
//	Exponential   (1-p)³          p³
//	Custom        t(1-p)          t(p)
//
// For Custom, t interpolates the points of the Table installed with
// Fader.SetCustomCurve; a crossfade captures the table when it begins.
//
// Starting a crossfade while another runs replaces it. Queued crossfades
// begin on the sample right after the active one ends. A zero or negative
// duration is a one-sample switch. A crossfade from a cue to itself keeps
// that cue at unity gain for the whole duration and then leaves it playing.
package crossfade

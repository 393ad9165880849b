// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	ErrDuplicateCue       = errors.New("cue already loaded")
	ErrCueNotFound        = errors.New("cue not found")
	ErrSampleRateMismatch = errors.New("cue sample rate differs from session")
)

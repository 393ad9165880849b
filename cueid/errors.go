// SPDX-License-Identifier: EPL-2.0

package cueid

import "errors"

var (
	ErrEmpty   = errors.New("cue id is empty")
	ErrTooLong = errors.New("cue id exceeds 63 bytes")
)

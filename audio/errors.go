// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrNoChannels        = errors.New("pcm has no channels")
	ErrEmptyPCM          = errors.New("pcm has no samples")
	ErrRaggedChannels    = errors.New("pcm channels differ in length")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrSourceStalled     = errors.New("source returned no samples repeatedly")
	ErrUnknownFormat     = errors.New("no decoder registered for format")
)

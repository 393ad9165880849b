// SPDX-License-Identifier: EPL-2.0

package cuemix

import "errors"

var (
	ErrInvalidChannels = errors.New("channel count must be positive")
	ErrInvalidMaxBlock = errors.New("max block must be positive")
	ErrQueueFull       = errors.New("command queue full")
	ErrNotCrossfading  = errors.New("no crossfade running")

	ErrCrossfadeQueueFull = errors.New("crossfade queue full")
)

// SPDX-License-Identifier: EPL-2.0

package command

import "errors"

var (
	ErrCapacityNotPowerOfTwo = errors.New("queue capacity must be a positive power of two")
)

// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

var (
	ErrBadConfig = errors.New("mp3: invalid engine configuration")
	ErrClosed    = errors.New("mp3: engine is closed")
)

// SPDX-License-Identifier: EPL-2.0

package fdkaac

import "errors"

var (
	ErrBufferTooSmall = errors.New("fdkaac: buffer cannot hold the largest adts frame")
	ErrClosed         = errors.New("fdkaac: engine is closed")
)

// SPDX-License-Identifier: EPL-2.0

package sink

import "github.com/pkg/errors"

var (
	ErrClosed           = errors.New("sink: closed")
	ErrFormatChanged    = errors.New("sink: frame format differs from the file")
	ErrUnsupportedDepth = errors.New("sink: only 16-bit samples are supported")
	ErrBadFormat        = errors.New("sink: invalid frame format")
	ErrNegativeSeek     = errors.New("sink: negative seek position")
	ErrBadWhence        = errors.New("sink: invalid whence")
)

// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

var (
	ErrBadConfig = errors.New("vorbis: invalid engine configuration")
	ErrChannels  = errors.New("vorbis: unsupported channel count")
	ErrClosed    = errors.New("vorbis: engine is closed")
)

// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrUnknownFormat = errors.New("engine: unknown format")
)

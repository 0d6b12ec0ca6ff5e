// SPDX-License-Identifier: EPL-2.0

package aacpump

import "errors"

var ErrNilArgument = errors.New("aacpump: nil reader or sink")

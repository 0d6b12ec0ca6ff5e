// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/ik5/aacpump/internal/adts"
)

// Format names used by the bundled engines.
const (
	FormatAAC = "aac"
	FormatMP3 = "mp3"
	FormatOgg = "ogg"
)

// SniffSize is the number of leading bytes Sniff looks at.
const SniffSize = 16

var extensions = map[string]string{
	".aac":  FormatAAC,
	".adts": FormatAAC,
	".mp3":  FormatMP3,
	".ogg":  FormatOgg,
	".oga":  FormatOgg,
}

// Sniff guesses the format of a stream from its first bytes. It returns ""
// when nothing matches.
func Sniff(header []byte) string {
	switch {
	case bytes.HasPrefix(header, []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3
	case adts.IsSync(header):
		return FormatAAC
	case isMPEGAudioSync(header):
		return FormatMP3
	}
	return ""
}

// isMPEGAudioSync matches an 11 bit frame sync with a non-reserved layer.
func isMPEGAudioSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0 && b[1]&0x06 != 0
}

// FormatFromPath maps a file extension to a format name, or "".
func FormatFromPath(path string) string {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

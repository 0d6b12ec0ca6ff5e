// SPDX-License-Identifier: EPL-2.0

// Package adts parses and builds ADTS frame headers (ISO/IEC 13818-7,
// 14496-3).
package adts

import (
	"errors"
	"fmt"
)

// Header sizes in bytes.
const (
	HeaderSize     = 7
	CRCSize        = 2
	MaxFrameLength = 1<<13 - 1
)

var (
	ErrShortHeader      = errors.New("adts: short header")
	ErrNoSync           = errors.New("adts: syncword not found")
	ErrBadLayer         = errors.New("adts: layer must be 0")
	ErrBadSampleRate    = errors.New("adts: reserved sampling frequency index")
	ErrBadFrameLength   = errors.New("adts: frame length shorter than header")
	ErrPayloadTooLarge  = errors.New("adts: payload does not fit in a frame")
	ErrBadChannelConfig = errors.New("adts: channel configuration out of range")
)

// sampleRates indexed by sampling_frequency_index. 13-15 are reserved.
var sampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350,
}

// Header holds the fixed and variable ADTS header fields.
type Header struct {
	MPEGID                 uint8 // 0: MPEG-4, 1: MPEG-2
	ProtectionAbsent       bool  // true: no CRC follows the header
	Profile                uint8 // audio object type minus one
	SamplingFrequencyIndex uint8
	ChannelConfiguration   uint8
	FrameLength            int // header + CRC + payload
	BufferFullness         uint16
	RawDataBlocks          uint8 // number of raw data blocks minus one
}

// Size returns the header length including the CRC when present.
func (h Header) Size() int {
	if h.ProtectionAbsent {
		return HeaderSize
	}
	return HeaderSize + CRCSize
}

// PayloadSize returns the number of raw data bytes after the header.
func (h Header) PayloadSize() int { return h.FrameLength - h.Size() }

// ObjectType returns the MPEG-4 audio object type (2 for AAC-LC).
func (h Header) ObjectType() int { return int(h.Profile) + 1 }

// SampleRate returns the sampling frequency in Hz.
func (h Header) SampleRate() int {
	if int(h.SamplingFrequencyIndex) < len(sampleRates) {
		return sampleRates[h.SamplingFrequencyIndex]
	}
	return 0
}

// Channels returns the output channel count implied by the channel
// configuration, or 0 when it is carried in a program config element.
func (h Header) Channels() int {
	switch c := h.ChannelConfiguration; {
	case c == 7:
		return 8
	case c <= 6:
		return int(c)
	}
	return 0
}

// IsSync reports whether b starts with an ADTS syncword and layer 0.
func IsSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xF6 == 0xF0
}

// Sync returns the offset of the first ADTS syncword in b, or -1.
func Sync(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if IsSync(b[i:]) {
			return i
		}
	}
	return -1
}

// Parse decodes the header at the start of b.
func Parse(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	if b[0] != 0xFF || b[1]&0xF0 != 0xF0 {
		return Header{}, ErrNoSync
	}
	if b[1]&0x06 != 0 {
		return Header{}, ErrBadLayer
	}

	h := Header{
		MPEGID:                 (b[1] >> 3) & 0x01,
		ProtectionAbsent:       b[1]&0x01 == 1,
		Profile:                b[2] >> 6,
		SamplingFrequencyIndex: (b[2] >> 2) & 0x0F,
		ChannelConfiguration:   (b[2]&0x01)<<2 | b[3]>>6,
		FrameLength:            int(b[3]&0x03)<<11 | int(b[4])<<3 | int(b[5])>>5,
		BufferFullness:         uint16(b[5]&0x1F)<<6 | uint16(b[6])>>2,
		RawDataBlocks:          b[6] & 0x03,
	}
	if int(h.SamplingFrequencyIndex) >= len(sampleRates) {
		return h, fmt.Errorf("%w: %d", ErrBadSampleRate, h.SamplingFrequencyIndex)
	}
	if h.FrameLength < h.Size() {
		return h, fmt.Errorf("%w: %d", ErrBadFrameLength, h.FrameLength)
	}
	return h, nil
}

// AppendFrame appends a CRC-less ADTS frame carrying payload to dst. The
// frame length field is computed from the payload; ProtectionAbsent is
// forced on.
func AppendFrame(dst []byte, h Header, payload []byte) ([]byte, error) {
	size := HeaderSize + len(payload)
	if size > MaxFrameLength {
		return dst, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	if int(h.SamplingFrequencyIndex) >= len(sampleRates) {
		return dst, fmt.Errorf("%w: %d", ErrBadSampleRate, h.SamplingFrequencyIndex)
	}
	if h.ChannelConfiguration > 7 {
		return dst, fmt.Errorf("%w: %d", ErrBadChannelConfig, h.ChannelConfiguration)
	}

	fullness := h.BufferFullness & 0x7FF
	dst = append(dst,
		0xFF,
		0xF1|(h.MPEGID&0x01)<<3,
		(h.Profile&0x03)<<6|(h.SamplingFrequencyIndex&0x0F)<<2|(h.ChannelConfiguration>>2)&0x01,
		(h.ChannelConfiguration&0x03)<<6|byte(size>>11)&0x03,
		byte(size>>3),
		byte(size&0x07)<<5|byte(fullness>>6),
		byte(fullness&0x3F)<<2|h.RawDataBlocks&0x03,
	)
	return append(dst, payload...), nil
}

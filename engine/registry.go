// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ik5/aacpump/pump"
)

// Codec is a registered engine: how to open it and the transport it expects.
type Codec struct {
	Transport pump.Transport
	Open      pump.Opener
}

// Registry maps format names (e.g. "aac", "mp3", "ogg") to codecs.
type Registry struct {
	codecs map[string]Codec

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Codec),
		mtx:    &sync.Mutex{},
	}
}

// Register adds or replaces the codec for format. Format names are case
// insensitive.
func (r *Registry) Register(format string, transport pump.Transport, open pump.Opener) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[strings.ToLower(format)] = Codec{Transport: transport, Open: open}
}

func (r *Registry) Get(format string) (Codec, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	c, ok := r.codecs[strings.ToLower(format)]
	return c, ok
}

// Lookup is Get with an error for unknown formats.
func (r *Registry) Lookup(format string) (Codec, error) {
	c, ok := r.Get(format)
	if !ok {
		return Codec{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return c, nil
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

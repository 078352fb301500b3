// Package buffer implements [Ring], a fixed-capacity circular byte buffer.
//
// The capacity is a power of two, which lets positions be mapped into the buffer with a bit mask
// instead of a modulo. Read and write positions only ever grow; the mask is applied when the
// buffer is indexed.
package buffer

import "github.com/teenjuna/scl/internal"

// Config is a config of the [Ring].
type Config struct {
	internal.Config
}

type ConfigFunc = func(c *Config)

func newConfig(configFuncs ...ConfigFunc) *Config {
	c := &Config{}
	internal.Defaults(&c.Config)
	for _, cf := range configFuncs {
		if cf != nil {
			cf(c)
		}
	}
	return c
}

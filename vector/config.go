package vector

import "github.com/teenjuna/scl/internal"

const defaultCapacity = 4

// Config is a config of the [Vector].
type Config struct {
	internal.Config
	capacity int
}

type ConfigFunc = func(c *Config)

// Capacity sets the number of slots allocated by the first growth. Later growths double the
// capacity. Default is 4.
func (c *Config) Capacity(capacity int) {
	if capacity < 1 {
		panic("capacity can't be < 1")
	}
	c.capacity = capacity
}

func newConfig(configFuncs ...ConfigFunc) *Config {
	c := &Config{}
	internal.Defaults(&c.Config)
	c.Capacity(defaultCapacity)
	for _, cf := range configFuncs {
		if cf != nil {
			cf(c)
		}
	}
	return c
}

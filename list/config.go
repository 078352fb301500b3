package list

import "github.com/teenjuna/scl/internal"

// Config is a config of the [List].
//
// Besides the shared setters it has no settings of its own yet.
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

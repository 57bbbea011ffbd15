package ops

import "github.com/hashicorp/go-hclog"

// common is embedded by every operation to give it a named logger.
type common struct {
	logger hclog.Logger
}

func (c *common) L() hclog.Logger {
	if c.logger == nil {
		c.logger = hclog.L()
	}

	return c.logger
}

func (c *common) SetLogger(logger hclog.Logger) {
	c.logger = logger
}

// Logged is implemented by every operation, so callers can hand them a
// logger without knowing their concrete type.
type Logged interface {
	L() hclog.Logger
	SetLogger(hclog.Logger)
}

// Attach gives each of ops a logger named after its role.
func Attach(L hclog.Logger, ops map[string]Logged) {
	for name, op := range ops {
		op.SetLogger(L.Named(name))
	}
}

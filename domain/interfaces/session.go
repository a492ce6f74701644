package interfaces

import "context"

// SessionFactory starts browser sessions. Each returned Driver is owned by exactly one run.
type SessionFactory interface {
	Open(ctx context.Context) (Driver, error)
	Name() string
}

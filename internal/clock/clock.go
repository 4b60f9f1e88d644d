// Package clock permite inyectar el tiempo en los casos de uso, para que la
// expiración de reservas y los cortes de archivado sean deterministas en tests.
package clock

import "time"

// Clock abstrae time.Now.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem devuelve un reloj respaldado por time.Now (UTC).
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed devuelve un reloj congelado en un instante (para tests).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

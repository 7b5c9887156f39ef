package service

import (
	"sync"

	"github.com/google/uuid"
)

// vehicleLocks сериализует запись атрибуций по машине внутри процесса.
type vehicleLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*vehicleLock
}

type vehicleLock struct {
	mu   sync.Mutex
	refs int
}

func newVehicleLocks() *vehicleLocks {
	return &vehicleLocks{locks: make(map[uuid.UUID]*vehicleLock)}
}

func (l *vehicleLocks) lock(vehicleID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[vehicleID]
	if !ok {
		entry = &vehicleLock{}
		l.locks[vehicleID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, vehicleID)
		}
		l.mu.Unlock()
	}
}

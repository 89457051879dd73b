package cache

import "time"

// SetLocalLockClock replaces the clock used for lease expiry
func SetLocalLockClock(l *LocalLock, now func() time.Time) {
	l.now = now
}

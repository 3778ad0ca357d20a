package runbox

import "time"

type Constraints struct {
	WallTimeLim time.Duration
	MemoryLimKB int64
}

func DefaultConstraints() Constraints {
	return Constraints{
		WallTimeLim: 1800 * time.Second,
		MemoryLimKB: 16384 * 1024,
	}
}

package opt

import "math/rand/v2"

// stream returns the random source for candidate index at the given step.
// Every draw a candidate needs during one step comes from its own stream,
// so results do not depend on how evaluations are scheduled.
func stream(seed int64, step, index int) *rand.Rand {
	key := uint64(uint32(step))<<32 | uint64(uint32(index))
	return rand.New(rand.NewPCG(splitmix64(uint64(seed)), splitmix64(key^0x5851f42d4c957f2d)))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

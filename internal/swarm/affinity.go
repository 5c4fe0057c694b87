package swarm

import "runtime"

// AffinityProvider reports the CPU indices workers may be pinned to.
// Worker CPU assignment round-robins over this list.
type AffinityProvider interface {
	CPUs() []int
}

// PortableProvider enumerates 0..NumCPU-1 without consulting the OS
// scheduler. It is the fallback on platforms without affinity syscalls and
// when the syscall fails.
type PortableProvider struct{}

// CPUs returns the full range of logical CPUs.
func (PortableProvider) CPUs() []int {
	n := runtime.NumCPU()
	cpus := make([]int, n)
	for i := range cpus {
		cpus[i] = i
	}
	return cpus
}

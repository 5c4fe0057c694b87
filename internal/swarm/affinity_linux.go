//go:build linux

package swarm

import "golang.org/x/sys/unix"

// SchedProvider reads the process CPU affinity mask, so workers respect
// cgroup and taskset restrictions instead of assuming all CPUs are usable.
type SchedProvider struct{}

// CPUs returns the CPUs in the current affinity mask, falling back to the
// portable enumeration when the syscall fails or reports nothing.
func (SchedProvider) CPUs() []int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return PortableProvider{}.CPUs()
	}

	var cpus []int
	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	if len(cpus) == 0 {
		return PortableProvider{}.CPUs()
	}
	return cpus
}

// DefaultProvider returns the platform's best affinity provider.
func DefaultProvider() AffinityProvider {
	return SchedProvider{}
}

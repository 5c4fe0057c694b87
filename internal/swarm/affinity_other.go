//go:build !linux

package swarm

// DefaultProvider returns the platform's best affinity provider.
func DefaultProvider() AffinityProvider {
	return PortableProvider{}
}

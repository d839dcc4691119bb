package systems

import "strings"

// Kernel labels passed to the device. Device stats are keyed by these.
const (
	KernelPrecompute = "precompute"
	KernelEmit       = "emit"
	KernelSimulate   = "simulate"
)

// KernelInfo describes a device command for UI display.
type KernelInfo struct {
	ID          string // Device label (used for kernel timing)
	Name        string // Display name
	Description string // What this kernel does
	Category    string // "kernel" or "transfer"
}

// KernelRegistry holds metadata about all device commands.
// This centralizes naming so the UI and perf log stay in sync.
type KernelRegistry struct {
	kernels []KernelInfo
	byID    map[string]KernelInfo
}

// NewKernelRegistry creates a registry with all known kernels.
func NewKernelRegistry() *KernelRegistry {
	reg := &KernelRegistry{
		byID: make(map[string]KernelInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known kernels to the registry.
func (r *KernelRegistry) registerDefaults() {
	r.Register(KernelInfo{ID: KernelPrecompute, Name: "Potential", Description: "Samples fBm noise into the potential texture", Category: "kernel"})
	r.Register(KernelInfo{ID: KernelEmit, Name: "Emit", Description: "Scatters new particles into their slots", Category: "kernel"})
	r.Register(KernelInfo{ID: KernelSimulate, Name: "Simulate", Description: "Advects, ages and collides particles", Category: "kernel"})

	// Staged transfers are labelled "<op>:<resource>" and are resolved by Name.
	r.Register(KernelInfo{ID: "upload", Name: "Upload", Description: "Host to device copy", Category: "transfer"})
	r.Register(KernelInfo{ID: "read", Name: "Read", Description: "Device to host copy", Category: "transfer"})
	r.Register(KernelInfo{ID: "release", Name: "Release", Description: "Frees device storage", Category: "transfer"})
}

// Register adds a kernel to the registry.
func (r *KernelRegistry) Register(info KernelInfo) {
	r.kernels = append(r.kernels, info)
	r.byID[info.ID] = info
}

// Get returns kernel info by label. Transfer labels match on their
// operation prefix.
func (r *KernelRegistry) Get(label string) (KernelInfo, bool) {
	if info, ok := r.byID[label]; ok {
		return info, true
	}
	if op, _, found := strings.Cut(label, ":"); found {
		info, ok := r.byID[op]
		return info, ok
	}
	return KernelInfo{}, false
}

// Name returns the display name for a device label.
// Falls back to the label itself if not found.
func (r *KernelRegistry) Name(label string) string {
	info, ok := r.Get(label)
	if !ok {
		return label
	}
	if op, res, found := strings.Cut(label, ":"); found && op == info.ID {
		return info.Name + " " + res
	}
	return info.Name
}

// All returns all registered kernels.
func (r *KernelRegistry) All() []KernelInfo {
	return r.kernels
}

// ByCategory returns kernels filtered by category.
func (r *KernelRegistry) ByCategory(category string) []KernelInfo {
	var result []KernelInfo
	for _, info := range r.kernels {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

package cpu

import (
	"fmt"
	"sync"

	"github.com/achilleasa/go-pathtrace-cpu/kernel"
)

// MemType distinguishes a plain device buffer from a sampled texture.
type MemType int

const (
	MemTypeDevice MemType = iota
	MemTypeTexture
)

// DeviceMemory is one named host allocation. Per this backend's host/device
// aliasing, the device pointer and the data pointer are the same Go slice:
// there is no separate device address space to copy across, so
// mem_copy_to/mem_copy_from below exist for call-site parity with the
// multi-device API rather than to move data between address spaces.
type DeviceMemory struct {
	Name string
	Type MemType
	Data []byte
}

func (m *DeviceMemory) bytes() int { return len(m.Data) }

// memoryTable owns every live DeviceMemory for one device instance and
// keeps Stats in sync with alloc/free pairing.
type memoryTable struct {
	mu    sync.Mutex
	stats *Stats
	byName map[string]*DeviceMemory
}

func newMemoryTable(stats *Stats) *memoryTable {
	return &memoryTable{stats: stats, byName: make(map[string]*DeviceMemory)}
}

// MemAlloc reserves a zeroed buffer of size bytes under name.
func (t *memoryTable) MemAlloc(name string, size int) *DeviceMemory {
	t.mu.Lock()
	defer t.mu.Unlock()

	mem := &DeviceMemory{Name: name, Type: MemTypeDevice, Data: make([]byte, size)}
	t.byName[name] = mem
	t.stats.recordAlloc(size)
	return mem
}

// MemZero clears a previously allocated buffer in place.
func (t *memoryTable) MemZero(mem *DeviceMemory) {
	for i := range mem.Data {
		mem.Data[i] = 0
	}
}

// MemCopyTo copies host-resident src into the device allocation.
func (t *memoryTable) MemCopyTo(mem *DeviceMemory, src []byte) {
	copy(mem.Data, src)
}

// MemCopyFrom copies the device allocation back into host-resident dst.
func (t *memoryTable) MemCopyFrom(mem *DeviceMemory, dst []byte) {
	copy(dst, mem.Data)
}

// MemFree releases a buffer and reconciles its accounting.
func (t *memoryTable) MemFree(mem *DeviceMemory) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byName[mem.Name]; !ok {
		return
	}
	delete(t.byName, mem.Name)
	t.stats.recordFree(mem.bytes())
	mem.Data = nil
}

// ConstCopyTo publishes a named read-only constant block into the shared
// KernelGlobals so every worker thread's clone observes it.
func (t *memoryTable) ConstCopyTo(kg *kernel.Globals, name string, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	kg.Constants[name] = buf
}

// TexAlloc registers a sampled texture against kg.Textures.
func (t *memoryTable) TexAlloc(kg *kernel.Globals, name string, data []byte, width, height, depth uint32, interp kernel.InterpolationType, extension kernel.ExtensionType) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("device/cpu: tex_alloc %q: zero-sized texture", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	kg.Textures[name] = kernel.TextureBinding{
		Data:          data,
		Width:         width,
		Height:        height,
		Depth:         depth,
		Interpolation: interp,
		Extension:     extension,
	}
	t.stats.recordAlloc(len(data))
	return nil
}

// TexFree removes a previously registered texture.
func (t *memoryTable) TexFree(kg *kernel.Globals, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	binding, ok := kg.Textures[name]
	if !ok {
		return
	}
	delete(kg.Textures, name)
	t.stats.recordFree(len(binding.Data))
}

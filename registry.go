package huidu

import (
	"fmt"
	"slices"
	"sync"
)

// ProgramRegistry, her cihaz için son alınan program GUID listesini tutar.
// Liste yalnızca bütün olarak değiştirilir; kısmi güncelleme yoktur.
type ProgramRegistry struct {
	mu       sync.RWMutex
	programs map[int][]string
	limit    int
}

// NewProgramRegistry, cihaz başına en fazla limit program tutan bir kayıt oluşturur.
func NewProgramRegistry(limit int) *ProgramRegistry {
	if limit <= 0 {
		limit = DefaultMaxPrograms
	}
	return &ProgramRegistry{
		programs: make(map[int][]string),
		limit:    limit,
	}
}

// Replace, cihazın program listesini verilen liste ile değiştirir.
// Sınırı aşan listeler ErrCapacityExceeded döner ve kayıt değişmez.
func (r *ProgramRegistry) Replace(device int, guids []string) error {
	if len(guids) > r.limit {
		return fmt.Errorf("%w: %d programs, limit %d", ErrCapacityExceeded, len(guids), r.limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[device] = slices.Clone(guids)
	return nil
}

// Lookup, cihazın idx sıradaki program GUID'ini döner.
func (r *ProgramRegistry) Lookup(device, idx int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.programs[device]
	if idx < 0 || idx >= len(list) {
		return "", fmt.Errorf("%w: program %d, device %d has %d", ErrProgramIndex, idx, device, len(list))
	}
	return list[idx], nil
}

// Count, cihaz için bilinen program sayısını döner.
func (r *ProgramRegistry) Count(device int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.programs[device])
}

// List, cihazın program listesinin kopyasını döner.
func (r *ProgramRegistry) List(device int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.programs[device])
}

// Reset, tüm cihazların program listelerini siler.
func (r *ProgramRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.programs)
}

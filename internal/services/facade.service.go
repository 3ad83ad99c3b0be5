package services

import (
	"log"
	"math/bits"
	"sync"
	"sync/atomic"
)

// DriverContext is the register block the data path saves and restores
// around NIC servicing. Order matches the save encodings: ax bx cx dx
// si di ds es.
type DriverContext struct {
	Regs  [8]uint16
	saved [8]uint16
}

// Saved returns the last saved register block
func (c *DriverContext) Saved() [8]uint16 { return c.saved }

type (
	copyFunc  func(dst, src []byte) int
	saveFunc  func(ctx *DriverContext)
	burstFunc func(window, words []uint16) int
	swapFunc  func(v uint32) uint32
	sumFunc   func(data []byte) uint16
)

// Baseline implementations: correct on the weakest supported tier.

// copyWords moves two bytes per step, the word-loop encoding
func copyWords(dst, src []byte) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	i := 0
	for ; i+1 < n; i += 2 {
		dst[i] = src[i]
		dst[i+1] = src[i+1]
	}
	for ; i < n; i++ {
		dst[i] = src[i]
	}
	return n
}

// copyDwords moves four bytes per step, legal once 32-bit operands exist
func copyDwords(dst, src []byte) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] = src[i]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+2]
		dst[i+3] = src[i+3]
	}
	for ; i < n; i++ {
		dst[i] = src[i]
	}
	return n
}

// copyBurst hands the whole block to the bulk mover
func copyBurst(dst, src []byte) int {
	return copy(dst, src)
}

// saveDiscrete stores registers one push at a time
func saveDiscrete(ctx *DriverContext) {
	for i := 0; i < len(ctx.Regs); i++ {
		ctx.saved[i] = ctx.Regs[i]
	}
}

// saveBulk stores the whole block in one operation, the PUSHA path
func saveBulk(ctx *DriverContext) {
	ctx.saved = ctx.Regs
}

// saveWide stores register pairs as 32-bit units, the PUSHAD path
func saveWide(ctx *DriverContext) {
	for i := 0; i+1 < len(ctx.Regs); i += 2 {
		pair := uint32(ctx.Regs[i]) | uint32(ctx.Regs[i+1])<<16
		ctx.saved[i] = uint16(pair)
		ctx.saved[i+1] = uint16(pair >> 16)
	}
}

// burstWords latches one word per output cycle
func burstWords(window, words []uint16) int {
	n := len(words)
	if len(window) < n {
		n = len(window)
	}
	for i := 0; i < n; i++ {
		window[i] = words[i]
	}
	return n
}

// burstDwords latches word pairs per output cycle
func burstDwords(window, words []uint16) int {
	n := len(words)
	if len(window) < n {
		n = len(window)
	}
	i := 0
	for ; i+1 < n; i += 2 {
		pair := uint32(words[i]) | uint32(words[i+1])<<16
		window[i] = uint16(pair)
		window[i+1] = uint16(pair >> 16)
	}
	for ; i < n; i++ {
		window[i] = words[i]
	}
	return n
}

// swapExchange reorders bytes through the 16-bit exchange chain
func swapExchange(v uint32) uint32 {
	lo := uint16(v)
	hi := uint16(v >> 16)
	lo = lo<<8 | lo>>8
	hi = hi<<8 | hi>>8
	return uint32(hi) | uint32(lo)<<16
}

// swapRotate reorders via a 16-bit rotate plus a low-word exchange
func swapRotate(v uint32) uint32 {
	v = bits.RotateLeft32(v, 16)
	lo := uint16(v)
	hi := uint16(v >> 16)
	return uint32(lo<<8|lo>>8) | uint32(hi<<8|hi>>8)<<16
}

// swapSingle is the single-instruction byte swap
func swapSingle(v uint32) uint32 {
	return bits.ReverseBytes32(v)
}

// sumWords folds the ones-complement checksum two bytes at a time
func sumWords(data []byte) uint16 {
	var sum uint32
	i := 0
	for ; i+1 < len(data); i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
		if sum > 0xFFFF {
			sum = (sum & 0xFFFF) + 1
		}
	}
	if i < len(data) {
		sum += uint32(data[i]) << 8
		if sum > 0xFFFF {
			sum = (sum & 0xFFFF) + 1
		}
	}
	return ^uint16(sum)
}

// sumDwords accumulates in 32 bits and folds once at the end
func sumDwords(data []byte) uint16 {
	var sum uint64
	i := 0
	for ; i+3 < len(data); i += 4 {
		sum += uint64(data[i])<<8 | uint64(data[i+1]) |
			uint64(data[i+2])<<24 | uint64(data[i+3])<<16
	}
	for ; i+1 < len(data); i += 2 {
		sum += uint64(data[i])<<8 | uint64(data[i+1])
	}
	if i < len(data) {
		sum += uint64(data[i]) << 8
	}
	for sum > 0xFFFF {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

// Variant name to implementation tables, keyed by the catalog encodings
var (
	copyImpls = map[string]copyFunc{
		"copy-386-dword": copyDwords,
		"copy-486-burst": copyBurst,
	}
	saveImpls = map[string]saveFunc{
		"save-pusha":  saveBulk,
		"save-pushad": saveWide,
	}
	burstImpls = map[string]burstFunc{
		"io-386-dword": burstDwords,
	}
	swapImpls = map[string]swapFunc{
		"swap-386-ror":   swapRotate,
		"swap-486-bswap": swapSingle,
	}
	sumImpls = map[string]sumFunc{
		"sum-386-dword": sumDwords,
	}
)

// OptimizationFacade is the only surface the data path calls. The first
// call per site triggers patch application; every call then dispatches to
// whatever implementation is active. Any recoverable failure leaves the
// baseline implementation in place and the caller unaffected.
type OptimizationFacade struct {
	engine *PatchEngine

	copyOnce  sync.Once
	saveOnce  sync.Once
	burstOnce sync.Once
	swapOnce  sync.Once
	sumOnce   sync.Once

	copyImpl  atomic.Pointer[copyFunc]
	saveImpl  atomic.Pointer[saveFunc]
	burstImpl atomic.Pointer[burstFunc]
	swapImpl  atomic.Pointer[swapFunc]
	sumImpl   atomic.Pointer[sumFunc]
}

// NewOptimizationFacade builds a facade with every site on its baseline
func NewOptimizationFacade(engine *PatchEngine) *OptimizationFacade {
	f := &OptimizationFacade{engine: engine}
	cp := copyFunc(copyWords)
	sv := saveFunc(saveDiscrete)
	br := burstFunc(burstWords)
	sw := swapFunc(swapExchange)
	sm := sumFunc(sumWords)
	f.copyImpl.Store(&cp)
	f.saveImpl.Store(&sv)
	f.burstImpl.Store(&br)
	f.swapImpl.Store(&sw)
	f.sumImpl.Store(&sm)
	return f
}

// activate applies a site and returns the name of the variant now active,
// or "" when the site stays on baseline
func (f *OptimizationFacade) activate(siteID string) string {
	rec, err := f.engine.Apply(siteID)
	if err != nil {
		log.Printf("[FACADE] Site %q stays on baseline: %v", siteID, err)
		return ""
	}
	return rec.Variant
}

// CopyBlock copies a packet buffer using the active encoding
func (f *OptimizationFacade) CopyBlock(dst, src []byte) int {
	f.copyOnce.Do(func() {
		if impl, ok := copyImpls[f.activate(SitePacketCopy)]; ok {
			f.copyImpl.Store(&impl)
		}
	})
	return (*f.copyImpl.Load())(dst, src)
}

// SaveContext stores the driver register block
func (f *OptimizationFacade) SaveContext(ctx *DriverContext) {
	f.saveOnce.Do(func() {
		if impl, ok := saveImpls[f.activate(SiteRegisterSave)]; ok {
			f.saveImpl.Store(&impl)
		}
	})
	(*f.saveImpl.Load())(ctx)
}

// RestoreContext loads the driver register block back
func (f *OptimizationFacade) RestoreContext(ctx *DriverContext) {
	ctx.Regs = ctx.saved
}

// WriteBurst pushes a word sequence into a NIC register window
func (f *OptimizationFacade) WriteBurst(window, words []uint16) int {
	f.burstOnce.Do(func() {
		if impl, ok := burstImpls[f.activate(SiteIOBurst)]; ok {
			f.burstImpl.Store(&impl)
		}
	})
	return (*f.burstImpl.Load())(window, words)
}

// SwapNetOrder converts a 32-bit value between host and network order
func (f *OptimizationFacade) SwapNetOrder(v uint32) uint32 {
	f.swapOnce.Do(func() {
		if impl, ok := swapImpls[f.activate(SiteByteSwap)]; ok {
			f.swapImpl.Store(&impl)
		}
	})
	return (*f.swapImpl.Load())(v)
}

// Checksum computes the ones-complement checksum of a buffer
func (f *OptimizationFacade) Checksum(data []byte) uint16 {
	f.sumOnce.Do(func() {
		if impl, ok := sumImpls[f.activate(SiteChecksum)]; ok {
			f.sumImpl.Store(&impl)
		}
	})
	return (*f.sumImpl.Load())(data)
}

// WarmUp applies every site eagerly. Called during initialization so no
// caller ever triggers application from a servicing path.
func (f *OptimizationFacade) WarmUp() {
	var buf [64]byte
	var ctx DriverContext
	window := make([]uint16, 8)
	words := make([]uint16, 8)

	f.CopyBlock(buf[:32], buf[32:])
	f.SaveContext(&ctx)
	f.WriteBurst(window, words)
	f.SwapNetOrder(0x12345678)
	f.Checksum(buf[:])
}

// Qualification test sizes, matching the driver's packet classes
const (
	qualSmallPacket = 64
	qualMTUPacket   = 1514
)

// QualificationCases pairs each operation's baseline with its currently
// active implementation for the harness
func (f *OptimizationFacade) QualificationCases() []QualificationCase {
	src := make([]byte, qualMTUPacket)
	dst := make([]byte, qualMTUPacket)
	small := make([]byte, qualSmallPacket)
	for i := range src {
		src[i] = byte(i)
	}
	for i := range small {
		small[i] = byte(i * 7)
	}
	window := make([]uint16, 64)
	words := make([]uint16, 64)
	for i := range words {
		words[i] = uint16(i)
	}
	var ctx DriverContext

	return []QualificationCase{
		{
			Name:      "copy-mtu-1514",
			Baseline:  func() { copyWords(dst, src) },
			Candidate: func() { (*f.copyImpl.Load())(dst, src) },
		},
		{
			Name:      "copy-small-64",
			Baseline:  func() { copyWords(dst[:qualSmallPacket], small) },
			Candidate: func() { (*f.copyImpl.Load())(dst[:qualSmallPacket], small) },
		},
		{
			Name:      "register-save",
			Baseline:  func() { saveDiscrete(&ctx) },
			Candidate: func() { (*f.saveImpl.Load())(&ctx) },
		},
		{
			Name:      "io-burst-64w",
			Baseline:  func() { burstWords(window, words) },
			Candidate: func() { (*f.burstImpl.Load())(window, words) },
		},
		{
			Name:      "checksum-mtu",
			Baseline:  func() { sumWords(src) },
			Candidate: func() { (*f.sumImpl.Load())(src) },
		},
	}
}

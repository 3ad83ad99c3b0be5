package services

import (
	"math/bits"
	"testing"

	"fastpath/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFacade(t *testing.T, source simSource) (*OptimizationFacade, *PatchEngine, *PatchCatalog) {
	t.Helper()
	engine, catalog := newTestEngine(t, source)
	return NewOptimizationFacade(engine), engine, catalog
}

func testPacket(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31 + 7)
	}
	return data
}

func TestCopyVariantsAgree(t *testing.T) {
	for _, n := range []int{0, 1, 2, 63, 64, 1514} {
		src := testPacket(n)
		want := make([]byte, n)
		copyWords(want, src)

		got := make([]byte, n)
		assert.Equal(t, n, copyDwords(got, src))
		assert.Equal(t, want, got, "copyDwords length %d", n)

		got = make([]byte, n)
		assert.Equal(t, n, copyBurst(got, src))
		assert.Equal(t, want, got, "copyBurst length %d", n)
	}
}

func TestSwapVariantsAgree(t *testing.T) {
	for _, v := range []uint32{0, 0x12345678, 0xFFFF0000, 0xDEADBEEF, 1} {
		want := bits.ReverseBytes32(v)
		assert.Equal(t, want, swapExchange(v))
		assert.Equal(t, want, swapRotate(v))
		assert.Equal(t, want, swapSingle(v))
	}
}

func TestChecksumVariantsAgree(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 20, 63, 64, 1514} {
		data := testPacket(n)
		assert.Equal(t, sumWords(data), sumDwords(data), "length %d", n)
	}
}

func TestSaveVariantsAgree(t *testing.T) {
	regs := [8]uint16{1, 2, 3, 4, 5, 6, 7, 8}

	for name, impl := range map[string]saveFunc{
		"discrete": saveDiscrete,
		"bulk":     saveBulk,
		"wide":     saveWide,
	} {
		ctx := DriverContext{Regs: regs}
		impl(&ctx)
		assert.Equal(t, regs, ctx.Saved(), name)
	}
}

func TestBurstVariantsAgree(t *testing.T) {
	words := []uint16{0x1111, 0x2222, 0x3333, 0x4444, 0x5555}

	a := make([]uint16, len(words))
	b := make([]uint16, len(words))
	assert.Equal(t, burstWords(a, words), burstDwords(b, words))
	assert.Equal(t, a, b)
}

func TestFacadeActivatesOnFirstCall(t *testing.T) {
	facade, engine, catalog := newTestFacade(t, sim486())

	src := testPacket(256)
	dst := make([]byte, 256)
	n := facade.CopyBlock(dst, src)

	assert.Equal(t, 256, n)
	assert.Equal(t, src, dst)

	site, _ := catalog.Lookup(SitePacketCopy)
	assert.Equal(t, models.StatePatched, site.State)
	assert.Equal(t, "copy-486-burst", site.Applied.Name)
	assert.Equal(t, uint64(1), engine.Stats().Applied)

	// Further calls dispatch without another application
	facade.CopyBlock(dst, src)
	assert.Equal(t, uint64(1), engine.Stats().Applied)
}

func TestFacadeStaysOnBaselineWhenUnsupported(t *testing.T) {
	facade, engine, catalog := newTestFacade(t, sim8086())

	src := testPacket(128)
	dst := make([]byte, 128)
	assert.Equal(t, 128, facade.CopyBlock(dst, src))
	assert.Equal(t, src, dst, "baseline path must still move the data")

	assert.Equal(t, bits.ReverseBytes32(0xCAFEBABE), facade.SwapNetOrder(0xCAFEBABE))
	assert.Equal(t, sumWords(src), facade.Checksum(src))

	site, _ := catalog.Lookup(SitePacketCopy)
	assert.Equal(t, models.StateUnpatched, site.State)
	assert.Equal(t, uint64(0), engine.Stats().Applied)
	assert.NotZero(t, engine.Stats().Skipped)
}

func TestWarmUpAppliesEverySite(t *testing.T) {
	facade, engine, catalog := newTestFacade(t, sim486())

	facade.WarmUp()

	for _, site := range catalog.Sites() {
		assert.Equal(t, models.StatePatched, site.State, "site %q", site.ID)
	}
	assert.Equal(t, uint64(5), engine.Stats().Applied)
}

func TestRestoreContextRoundTrip(t *testing.T) {
	facade, _, _ := newTestFacade(t, sim486())

	ctx := DriverContext{Regs: [8]uint16{9, 8, 7, 6, 5, 4, 3, 2}}
	saved := ctx.Regs

	facade.SaveContext(&ctx)
	ctx.Regs = [8]uint16{}
	facade.RestoreContext(&ctx)

	assert.Equal(t, saved, ctx.Regs)
}

func TestQualificationCasesCoverInventory(t *testing.T) {
	facade, _, _ := newTestFacade(t, sim486())
	facade.WarmUp()

	cases := facade.QualificationCases()
	require.Len(t, cases, 5)

	h := NewValidationHarness(SystemTimer(), 0.05, 25)
	summary := h.RunSuite(cases, 3)
	assert.Len(t, summary.Reports, 5)
	assert.False(t, summary.CompletedAt.IsZero())
}

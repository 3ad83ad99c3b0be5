package services

import (
	"testing"

	"fastpath/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsLengthMismatch(t *testing.T) {
	pc := NewPatchCatalog(32)

	err := pc.Register("mismatch",
		[]byte{0x90, 0x90, 0x90, 0x90},
		models.Variant{Name: "short", MinTier: models.Tier80386, Code: []byte{0x90, 0x90}},
	)

	require.ErrorIs(t, err, ErrSiteTooLarge)
	_, ok := pc.Lookup("mismatch")
	assert.False(t, ok, "rejected site must not be registered")
}

func TestRegisterRejectsOversizedBaseline(t *testing.T) {
	pc := NewPatchCatalog(4)

	err := pc.Register("big", make([]byte, 5))
	assert.ErrorIs(t, err, ErrSiteTooLarge)

	err = pc.Register("empty", nil)
	assert.ErrorIs(t, err, ErrSiteTooLarge)
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	pc := NewPatchCatalog(32)

	require.NoError(t, pc.Register("dup", []byte{0x90}))
	err := pc.Register("dup", []byte{0x90})
	assert.ErrorIs(t, err, ErrDuplicateSite)
}

func TestRegionStartsAsBaselineCopy(t *testing.T) {
	pc := NewPatchCatalog(32)
	baseline := []byte{0x01, 0x02, 0x03}
	require.NoError(t, pc.Register("site", baseline))

	site, ok := pc.Lookup("site")
	require.True(t, ok)
	assert.Equal(t, baseline, site.Region)

	// The region must be an independent copy, not an alias
	site.Region[0] = 0xFF
	assert.Equal(t, byte(0x01), site.Baseline[0])
	assert.Equal(t, models.StateUnpatched, site.State)
}

func TestDefaultCatalogInventory(t *testing.T) {
	pc, err := BuildDefaultCatalog(32)
	require.NoError(t, err)

	sites := pc.Sites()
	require.Len(t, sites, 5)

	wantOrder := []string{SitePacketCopy, SiteRegisterSave, SiteIOBurst, SiteByteSwap, SiteChecksum}
	for i, site := range sites {
		assert.Equal(t, wantOrder[i], site.ID)
		for _, v := range site.Variants {
			assert.Len(t, v.Code, len(site.Baseline),
				"site %q variant %q must match baseline length", site.ID, v.Name)
		}
	}
}

package services

import (
	"testing"

	"fastpath/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simSource simulates a processor for detection tests. Capability flags
// can disagree with the tier on purpose to exercise the probe ordering.
type simSource struct {
	tier     models.Tier
	widePush bool
	ops32    bool
	bswap    bool
	modelq   bool
	cache    bool
	vendor   string
}

func (s simSource) Generation() models.Tier { return s.tier }
func (s simSource) HasWidePushPop() bool    { return s.widePush }
func (s simSource) Has32BitOps() bool       { return s.ops32 }
func (s simSource) HasByteSwap() bool       { return s.bswap }
func (s simSource) HasModelQuery() bool     { return s.modelq }
func (s simSource) HasInternalCache() bool  { return s.cache }
func (s simSource) VendorTag() string       { return s.vendor }

func sim8086() simSource {
	return simSource{tier: models.Tier8086}
}

func sim286() simSource {
	return simSource{tier: models.Tier80286, widePush: true}
}

func sim386() simSource {
	return simSource{tier: models.Tier80386, widePush: true, ops32: true}
}

func sim486() simSource {
	return simSource{tier: models.Tier80486, widePush: true, ops32: true, bswap: true, cache: true}
}

func simModern() simSource {
	return simSource{
		tier: models.TierCPUID, widePush: true, ops32: true,
		bswap: true, modelq: true, cache: true, vendor: "GenuineIntel",
	}
}

func TestDetectProfileOldestProcessor(t *testing.T) {
	profile := DetectProfile(sim8086())

	assert.Equal(t, models.Tier8086, profile.Tier)
	assert.Empty(t, profile.Features.Names())
	assert.False(t, profile.Supports(models.Tier80186))
}

func TestDetectProfileFeatureGatedByTier(t *testing.T) {
	// A source reporting capabilities its generation cannot have must not
	// get them attributed
	source := simSource{tier: models.Tier8086, widePush: true, ops32: true, bswap: true}
	profile := DetectProfile(source)

	assert.False(t, profile.Features.Has(models.FeatureWidePushPop))
	assert.False(t, profile.Features.Has(models.Feature32BitOps))
	assert.False(t, profile.Features.Has(models.FeatureByteSwap))
}

func TestDetectProfileProgression(t *testing.T) {
	p286 := DetectProfile(sim286())
	assert.True(t, p286.Features.Has(models.FeatureWidePushPop))
	assert.False(t, p286.Features.Has(models.Feature32BitOps))

	p386 := DetectProfile(sim386())
	assert.True(t, p386.Features.Has(models.FeatureWidePushPop, models.Feature32BitOps))
	assert.False(t, p386.Features.Has(models.FeatureByteSwap))

	p486 := DetectProfile(sim486())
	assert.True(t, p486.Features.Has(models.FeatureByteSwap, models.FeatureCache))
	assert.False(t, p486.Features.Has(models.FeatureModelQuery))
}

func TestDetectProfileModelQuery(t *testing.T) {
	profile := DetectProfile(simModern())

	assert.True(t, profile.Features.Has(models.FeatureModelQuery))
	assert.Equal(t, "GenuineIntel", profile.VendorTag)
	assert.Equal(t, "CPUID-capable", profile.TierName)
}

func TestProfileSupports(t *testing.T) {
	profile := DetectProfile(sim386())

	assert.True(t, profile.Supports(models.Tier80286))
	assert.True(t, profile.Supports(models.Tier80386, models.Feature32BitOps))
	assert.False(t, profile.Supports(models.Tier80486))
	assert.False(t, profile.Supports(models.Tier80386, models.FeatureByteSwap))

	var nilProfile *models.CPUProfile
	assert.False(t, nilProfile.Supports(models.Tier8086))
}

func TestInitProfileRunsOnce(t *testing.T) {
	TeardownProfile()
	t.Cleanup(TeardownProfile)

	profile, err := InitProfile(sim486())
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Same(t, profile, CurrentProfile())

	_, err = InitProfile(sim486())
	assert.Error(t, err)
}

func TestHostSourceDetectsTopTier(t *testing.T) {
	profile := DetectProfile(HostSource{})

	// Anything running this test sits at the top tier with the full
	// instruction set features
	assert.Equal(t, models.TierCPUID, profile.Tier)
	assert.True(t, profile.Features.Has(
		models.FeatureWidePushPop, models.Feature32BitOps, models.FeatureByteSwap))
}

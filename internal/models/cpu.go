package models

// Tier classifies processor generations from least to most capable.
// Selection logic relies on the ordering, so the values must stay sorted.
type Tier int

const (
	Tier8086 Tier = iota
	Tier80186
	Tier80286
	Tier80386
	Tier80486
	TierCPUID // CPUID-capable (Pentium class and later)
)

var tierNames = []string{
	"8086/8088",
	"80186/80188",
	"80286",
	"80386",
	"80486",
	"CPUID-capable",
}

// String returns the display name for a tier
func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "Unknown"
}

// Feature is a named optional processor capability
type Feature string

const (
	FeatureWidePushPop Feature = "wide_pushpop" // PUSHA/POPA register save
	Feature32BitOps    Feature = "wide32"       // 32-bit operand support
	FeatureByteSwap    Feature = "bswap"        // BSWAP instruction
	FeatureModelQuery  Feature = "model_query"  // CPUID-style identity instruction
	FeatureCache       Feature = "cache"        // internal cache present
)

// FeatureSet is the set of capabilities detected on a processor
type FeatureSet map[Feature]bool

// Has reports whether every listed feature is present
func (fs FeatureSet) Has(features ...Feature) bool {
	for _, f := range features {
		if !fs[f] {
			return false
		}
	}
	return true
}

// Names returns the present features as a slice for JSON payloads
func (fs FeatureSet) Names() []string {
	names := make([]string, 0, len(fs))
	for f, ok := range fs {
		if ok {
			names = append(names, string(f))
		}
	}
	return names
}

// CPUProfile is an immutable snapshot of the detected processor.
// Built once at startup; never mutated afterwards.
type CPUProfile struct {
	Tier      Tier       `json:"-"`
	TierName  string     `json:"tier"`
	Features  FeatureSet `json:"-"`
	Flags     []string   `json:"features"`
	VendorTag string     `json:"vendor_tag,omitempty"`
	ModelName string     `json:"model_name,omitempty"`
	Cores     int        `json:"cores,omitempty"`
	MHz       float64    `json:"mhz,omitempty"`
}

// Supports reports whether the profile meets a tier floor plus required features
func (p *CPUProfile) Supports(minTier Tier, required ...Feature) bool {
	if p == nil || p.Tier < minTier {
		return false
	}
	return p.Features.Has(required...)
}

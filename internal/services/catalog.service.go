package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"fastpath/internal/models"
)

// Registration-time errors. Neither can occur at steady state: the catalog
// is sealed after startup.
var (
	ErrSiteTooLarge  = errors.New("patch site exceeds configured size limit or length invariant")
	ErrDuplicateSite = errors.New("patch site id already registered")
)

// PatchCatalog is the build-time registry of patchable sites. Registration
// validates the sites; afterwards the catalog is read-only and the engine
// owns all site mutation.
type PatchCatalog struct {
	mu       sync.RWMutex
	sites    map[string]*models.PatchSite
	order    []string
	maxBytes int
}

// NewPatchCatalog creates an empty catalog with the given site size cap
func NewPatchCatalog(maxSiteBytes int) *PatchCatalog {
	return &PatchCatalog{
		sites:    make(map[string]*models.PatchSite),
		maxBytes: maxSiteBytes,
	}
}

// Register adds a site. Every variant must encode to exactly the baseline
// length (there is no relocation support) and the baseline must fit the
// size cap; violations return ErrSiteTooLarge and the site stays out of
// the catalog.
func (pc *PatchCatalog) Register(id string, baseline []byte, variants ...models.Variant) error {
	if len(baseline) == 0 || len(baseline) > pc.maxBytes {
		return fmt.Errorf("%w: site %q baseline is %d bytes (limit %d)",
			ErrSiteTooLarge, id, len(baseline), pc.maxBytes)
	}
	for _, v := range variants {
		if len(v.Code) != len(baseline) {
			return fmt.Errorf("%w: site %q variant %q is %d bytes, baseline is %d",
				ErrSiteTooLarge, id, v.Name, len(v.Code), len(baseline))
		}
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if _, exists := pc.sites[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSite, id)
	}

	region := make([]byte, len(baseline))
	copy(region, baseline)

	for i := range variants {
		variants[i].TierName = variants[i].MinTier.String()
	}

	pc.sites[id] = &models.PatchSite{
		ID:       id,
		Region:   region,
		Baseline: baseline,
		Variants: variants,
		State:    models.StateUnpatched,
	}
	pc.order = append(pc.order, id)

	log.Printf("[CATALOG] Registered site %q (%d bytes, %d variants)", id, len(baseline), len(variants))
	return nil
}

// Lookup returns a site by id
func (pc *PatchCatalog) Lookup(id string) (*models.PatchSite, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	site, ok := pc.sites[id]
	return site, ok
}

// Sites enumerates all sites in registration order
func (pc *PatchCatalog) Sites() []*models.PatchSite {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	out := make([]*models.PatchSite, 0, len(pc.order))
	for _, id := range pc.order {
		out = append(out, pc.sites[id])
	}
	return out
}

// Well-known site ids for the driver data path
const (
	SitePacketCopy   = "packet-copy"
	SiteRegisterSave = "register-save"
	SiteIOBurst      = "io-burst"
	SiteByteSwap     = "byte-swap"
	SiteChecksum     = "checksum"
)

// BuildDefaultCatalog registers the fixed data-path site inventory.
// Variants are NOP-padded to their baseline length so the engine can
// always overwrite in place.
func BuildDefaultCatalog(maxSiteBytes int) (*PatchCatalog, error) {
	pc := NewPatchCatalog(maxSiteBytes)

	// Packet copy: word loop on the weakest tier, dword copies once
	// 32-bit operands exist.
	err := pc.Register(SitePacketCopy,
		[]byte{
			0xFC,       // cld
			0x8B, 0xCB, // mov  cx, bx
			0xD1, 0xE9, // shr  cx, 1
			0xF3, 0xA5, // rep  movsw
			0x73, 0x01, // jnc  short done
			0xA4,       // movsb
			0x90, 0x90, // nop ; nop
		},
		models.Variant{
			Name:     "copy-386-dword",
			MinTier:  models.Tier80386,
			Requires: []models.Feature{models.Feature32BitOps},
			Code: []byte{
				0xFC,             // cld
				0x8B, 0xCB,       // mov  cx, bx
				0xC1, 0xE9, 0x02, // shr  cx, 2
				0x66, 0xF3, 0xA5, // rep  movsd
				0x90, 0x90, 0x90, // nop padding
			},
		},
		models.Variant{
			Name:     "copy-486-burst",
			MinTier:  models.Tier80486,
			Requires: []models.Feature{models.Feature32BitOps, models.FeatureCache},
			Code: []byte{
				0xFC,                   // cld
				0x66, 0x8B, 0xCB,       // mov  ecx, ebx
				0x66, 0xC1, 0xE9, 0x02, // shr  ecx, 2
				0x66, 0xF3, 0xA5,       // rep  movsd (cache-line friendly)
				0x90,                   // nop padding
			},
		},
	)
	if err != nil {
		return nil, err
	}

	// Register save path: discrete pushes, PUSHA once available, PUSHAD
	// with 32-bit operands.
	err = pc.Register(SiteRegisterSave,
		[]byte{
			0x50, 0x53, 0x51, 0x52, // push ax / bx / cx / dx
			0x56, 0x57,             // push si / di
			0x1E, 0x06,             // push ds / es
		},
		models.Variant{
			Name:     "save-pusha",
			MinTier:  models.Tier80286,
			Requires: []models.Feature{models.FeatureWidePushPop},
			Code: []byte{
				0x60,                         // pusha
				0x1E, 0x06,                   // push ds / es
				0x90, 0x90, 0x90, 0x90, 0x90, // nop padding
			},
		},
		models.Variant{
			Name:     "save-pushad",
			MinTier:  models.Tier80386,
			Requires: []models.Feature{models.FeatureWidePushPop, models.Feature32BitOps},
			Code: []byte{
				0x66, 0x60,             // pushad
				0x1E, 0x06,             // push ds / es
				0x90, 0x90, 0x90, 0x90, // nop padding
			},
		},
	)
	if err != nil {
		return nil, err
	}

	// I/O burst: word-at-a-time OUT loop vs. paired dword writes
	err = pc.Register(SiteIOBurst,
		[]byte{
			0xAD,                               // lodsw
			0xEF,                               // out  dx, ax
			0xE2, 0xFC,                         // loop $-4
			0x90, 0x90, 0x90, 0x90, 0x90, 0x90, // nop padding
		},
		models.Variant{
			Name:     "io-386-dword",
			MinTier:  models.Tier80386,
			Requires: []models.Feature{models.Feature32BitOps},
			Code: []byte{
				0x66, 0xAD,             // lodsd
				0x66, 0xEF,             // out  dx, eax
				0xE2, 0xFA,             // loop $-6
				0x90, 0x90, 0x90, 0x90, // nop padding
			},
		},
	)
	if err != nil {
		return nil, err
	}

	// Network byte order swap: exchange chain, then single BSWAP on 486+
	err = pc.Register(SiteByteSwap,
		[]byte{
			0x86, 0xC4, // xchg al, ah
			0x92,       // xchg ax, dx
			0x86, 0xC4, // xchg al, ah
			0x90,       // nop padding
		},
		models.Variant{
			Name:     "swap-386-ror",
			MinTier:  models.Tier80386,
			Requires: []models.Feature{models.Feature32BitOps},
			Code: []byte{
				0x66, 0xC1, 0xC8, 0x10, // ror  eax, 16
				0x86, 0xC4,             // xchg al, ah
			},
		},
		models.Variant{
			Name:     "swap-486-bswap",
			MinTier:  models.Tier80486,
			Requires: []models.Feature{models.Feature32BitOps, models.FeatureByteSwap},
			Code: []byte{
				0x66, 0x0F, 0xC8, // bswap eax
				0x90, 0x90, 0x90, // nop padding
			},
		},
	)
	if err != nil {
		return nil, err
	}

	// Internet checksum accumulation: 16-bit add-with-carry loop vs.
	// 32-bit accumulation with a final fold
	err = pc.Register(SiteChecksum,
		[]byte{
			0x31, 0xC0,             // xor  ax, ax
			0x03, 0x04,             // add  ax, [si]
			0x83, 0xD0, 0x00,       // adc  ax, 0
			0x46, 0x46,             // inc  si ; inc si
			0xE2, 0xF7,             // loop $-9
			0x90, 0x90, 0x90, 0x90, // nop padding
		},
		models.Variant{
			Name:     "sum-386-dword",
			MinTier:  models.Tier80386,
			Requires: []models.Feature{models.Feature32BitOps},
			Code: []byte{
				0x66, 0x31, 0xC0,       // xor  eax, eax
				0x66, 0x03, 0x04,       // add  eax, [si]
				0x66, 0x83, 0xD0, 0x00, // adc  eax, 0
				0x83, 0xC6, 0x04,       // add  si, 4
				0xE2, 0xF3,             // loop $-13
			},
		},
	)
	if err != nil {
		return nil, err
	}

	return pc, nil
}

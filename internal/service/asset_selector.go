// internal/service/asset_selector.go
package service

import (
	"math/rand"

	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

// Picker chooses one of n candidates. Injectable so tests can pin the
// selection.
type Picker interface {
	Pick(n int) int
}

type randomPicker struct{}

func (randomPicker) Pick(n int) int { return rand.Intn(n) }

func NewRandomPicker() Picker { return randomPicker{} }

// AssetSelector hands out unused assets from a campaign's library.
type AssetSelector struct {
	AssetRepo repository.AssetRepositoryInterface
	Picker    Picker
}

// SelectUnused returns a random unused asset with a file, or nil when the
// library is exhausted. A nil asset means "generation blocked", not an
// error.
func (s *AssetSelector) SelectUnused(libraryID int) (*model.Asset, error) {
	candidates, err := s.AssetRepo.ListUnusedByLibrary(libraryID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[s.Picker.Pick(len(candidates))], nil
}

// MarkUsed flags the asset consumed. Calling it on an already-used asset is
// accepted; usage_count keeps incrementing. Uniqueness per campaign is
// enforced at PostAsset write time, not here.
func (s *AssetSelector) MarkUsed(assetID int) error {
	return s.AssetRepo.MarkUsed(assetID)
}

// Reset clears usage tracking so the asset can be picked again.
func (s *AssetSelector) Reset(assetID int) error {
	return s.AssetRepo.ResetUsage(assetID)
}

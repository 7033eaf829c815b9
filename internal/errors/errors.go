// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrAssetNotFound is returned when an asset lookup misses
type ErrAssetNotFound struct {
	AssetID int
}

func (e *ErrAssetNotFound) Error() string {
	return fmt.Sprintf("asset with ID %d not found", e.AssetID)
}

func NewAssetNotFound(id int) error {
	return &ErrAssetNotFound{AssetID: id}
}

// ErrCampaignNotReady means the campaign failed its generation readiness
// check (missing prompt, no unused assets, or inactive). Not retryable.
type ErrCampaignNotReady struct {
	CampaignID int
	Missing    []string
}

func (e *ErrCampaignNotReady) Error() string {
	return fmt.Sprintf("campaign %d is not ready for generation, missing: %s",
		e.CampaignID, strings.Join(e.Missing, ", "))
}

func NewCampaignNotReady(id int, missing []string) error {
	return &ErrCampaignNotReady{CampaignID: id, Missing: missing}
}

// ErrAssetAlreadyUsed means the asset is already linked to another post of
// the same campaign. The offending link is rejected, sibling posts stand.
type ErrAssetAlreadyUsed struct {
	CampaignID int
	AssetID    int
}

func (e *ErrAssetAlreadyUsed) Error() string {
	return fmt.Sprintf("asset %d has already been used in another post of campaign %d", e.AssetID, e.CampaignID)
}

func NewAssetAlreadyUsed(campaignID, assetID int) error {
	return &ErrAssetAlreadyUsed{CampaignID: campaignID, AssetID: assetID}
}

// ErrAssetExhausted means no unused asset was available for a post slot.
// The slot is skipped and the rest of the period continues.
var ErrAssetExhausted = errors.New("no unused assets available for content generation")

// ErrGeneration wraps any oracle-side failure (auth, rate limit, empty
// output). Callers treat all of these uniformly: log and skip the post.
type ErrGeneration struct {
	Reason string
}

func (e *ErrGeneration) Error() string {
	return "content generation failed: " + e.Reason
}

func NewGenerationError(reason string) error {
	return &ErrGeneration{Reason: reason}
}

func IsNotFound(err error) bool {
	var c *ErrCampaignNotFound
	var a *ErrAssetNotFound
	return errors.As(err, &c) || errors.As(err, &a)
}

func IsNotReady(err error) bool {
	var e *ErrCampaignNotReady
	return errors.As(err, &e)
}

func IsAssetAlreadyUsed(err error) bool {
	var e *ErrAssetAlreadyUsed
	return errors.As(err, &e)
}

func IsGeneration(err error) bool {
	var e *ErrGeneration
	return errors.As(err, &e)
}

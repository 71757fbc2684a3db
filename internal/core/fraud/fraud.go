// Package fraud holds the listing integrity checks: live-VIN uniqueness and
// photo reuse detection. Photo fingerprints are a digest of the normalized URL,
// so only literal reuse of the same uploaded file reference is caught.
package fraud

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/ports"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImageOverlapBlockThreshold is the overlap count that blocks update and submit.
const ImageOverlapBlockThreshold = 8

// VINLength is the only accepted VIN length.
const VINLength = 17

// NormalizeVIN trims and upper-cases a VIN for comparison.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// Fingerprint reduces a photo URL to a content fingerprint.
func Fingerprint(photoURL string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(photoURL))))
	return hex.EncodeToString(sum[:])
}

// Fingerprints maps Fingerprint over a photo list, preserving order.
func Fingerprints(photoURLs []string) []string {
	out := make([]string, len(photoURLs))
	for i, u := range photoURLs {
		out[i] = Fingerprint(u)
	}
	return out
}

// Checker runs the integrity queries against the listing store.
type Checker struct {
	listings ports.ListingRepository
	log      zerolog.Logger
}

// NewChecker creates a new integrity checker.
func NewChecker(listings ports.ListingRepository, baseLogger *zerolog.Logger) *Checker {
	return &Checker{
		listings: listings,
		log:      baseLogger.With().Str("component", "fraud_checker").Logger(),
	}
}

// VINInUse reports whether another live listing already carries vin.
func (c *Checker) VINInUse(ctx context.Context, vin string, excludeID *uuid.UUID) (bool, error) {
	dup, err := c.listings.HasDuplicateVin(ctx, NormalizeVIN(vin), excludeID)
	if err != nil {
		c.log.Error().Err(err).Msg("VIN uniqueness check failed")
		return false, err
	}
	return dup, nil
}

// ImageOverlap counts how many of photos already appear on other listings.
func (c *Checker) ImageOverlap(ctx context.Context, photos []string, excludeID *uuid.UUID) (domain.DuplicateImageSignal, error) {
	signal, err := c.listings.DetectDuplicateImageHashes(ctx, Fingerprints(photos), excludeID)
	if err != nil {
		c.log.Error().Err(err).Msg("Duplicate image scan failed")
		return domain.DuplicateImageSignal{}, err
	}
	if signal.OverlapCount > 0 {
		c.log.Warn().
			Int("overlap", signal.OverlapCount).
			Int("listings", len(signal.ListingIDs)).
			Msg("Photo overlap with existing listings")
	}
	return signal, nil
}

// Blocks reports whether the overlap is high enough to refuse the write.
func Blocks(signal domain.DuplicateImageSignal) bool {
	return signal.OverlapCount >= ImageOverlapBlockThreshold
}

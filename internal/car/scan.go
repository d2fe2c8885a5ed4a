package car

import (
	"context"
	"fmt"
	"time"

	"github.com/chaz8081/carctl/internal/ble"
)

// Discover runs one bounded scan window, feeding each advertisement through
// the matcher incrementally. The scan stops as soon as a match is latched.
// It returns the latched address, or "" when nothing matched. A discovery
// miss is a no-op cycle, not an error.
func (s *Session) Discover(ctx context.Context, window time.Duration) (string, error) {
	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	err := s.adapter.Scan(scanCtx, func(adv ble.Advertisement) {
		if s.HandleAdvertisement(adv) {
			cancel()
		}
	})
	if err != nil {
		return "", fmt.Errorf("car: discover: %w", err)
	}
	return s.Target(), nil
}

// ScanAll collects every distinct advertisement heard during one window,
// in observation order. Used by the scan listing command.
func ScanAll(ctx context.Context, adapter ble.Adapter, window time.Duration) ([]ble.Advertisement, error) {
	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	var devices []ble.Advertisement
	seen := make(map[string]bool)

	err := adapter.Scan(scanCtx, func(adv ble.Advertisement) {
		if seen[adv.Address] {
			return
		}
		seen[adv.Address] = true
		devices = append(devices, adv)
	})
	if err != nil {
		return nil, fmt.Errorf("car: scan: %w", err)
	}
	return devices, nil
}

// ABOUTME: Connection validation for the FAIRSCAPE API.
// ABOUTME: Tests credentials against the status endpoint with a short timeout.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/2389-research/ppiembed/internal/provenance"
)

// validateTimeout bounds a single validation attempt.
const validateTimeout = 10 * time.Second

// ValidateConnection checks that apiURL answers /status with the given credentials.
// The context allows cancellation when the user quits during validation.
func ValidateConnection(ctx context.Context, apiURL, username, token string) error {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	if err := provenance.NewRemoteClient(apiURL, username, token).Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}

package filelink

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniedit/filelink/internal/port/outbound"
	apperrors "github.com/uniedit/filelink/internal/shared/errors"
)

// waitUntilExists polls HeadObject until key is readable, with capped
// exponential backoff bounded by attempts and the policy timeout.
func (d *Domain) waitUntilExists(ctx context.Context, key string) error {
	policy := d.config.Wait
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := policy.InitialDelay
	deadline := d.clock.Now().Add(policy.Timeout)

	for attempt := 1; ; attempt++ {
		_, err := d.store.HeadObject(ctx, d.config.Bucket, key)
		if err == nil {
			d.metrics.RecordWait(attempt)
			return nil
		}
		if !errors.Is(err, outbound.ErrObjectNotFound) {
			return apperrors.RemoteOperation("wait for object", err)
		}

		if attempt >= maxAttempts {
			return apperrors.WaitTimeout(key, attempt)
		}
		if policy.Timeout > 0 && d.clock.Now().Add(delay).After(deadline) {
			return apperrors.WaitTimeout(key, attempt)
		}

		d.logger.Debug("object not visible yet",
			zap.String("key", key),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
		)

		if err := d.clock.Sleep(ctx, delay); err != nil {
			return fmt.Errorf("wait for object %s: %w", key, err)
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}

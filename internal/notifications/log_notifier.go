package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the dev/test delivery backend: it prints instead of
// sending. NOTIFIER_SLEEP_MS and NOTIFIER_FAIL simulate a slow or
// broken provider.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendShareSummary(ctx context.Context, in ShareSummaryInput) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	log.Printf("notification.share_summary share=%d to=%s from=%s tasks=%d",
		in.ShareID, in.ToEmail, in.FromUsername, len(in.Tasks),
	)
	return nil
}

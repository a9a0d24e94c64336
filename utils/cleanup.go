package utils

import (
	"context"
	"log"
)

// TimeoutClearer lifts moderation timeouts that have already ended.
type TimeoutClearer interface {
	ClearExpiredTimeouts(ctx context.Context) (int64, error)
}

// RunStartupCleanup clears timeouts that ran out while the server was down.
// Later expiries are cleared lazily when the user is checked.
func RunStartupCleanup(ctx context.Context, clearer TimeoutClearer) {
	log.Println("clearing expired timeouts...")
	n, err := clearer.ClearExpiredTimeouts(ctx)
	if err != nil {
		log.Printf("clear expired timeouts: %v", err)
		return
	}
	if n > 0 {
		log.Printf("cleared %d expired timeouts", n)
	}
}

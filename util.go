package ipmisdr

import (
	"context"
	"encoding/json"
	"time"
)

func toJSON(s interface{}) string {
	r, _ := json.Marshal(s)
	return string(r)
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package testsupport

import (
	"context"
	"fmt"
	"sync"

	"cheatdb/internal/notifications"
	"cheatdb/internal/store"
)

// RecordingNotifier captures notifications as short event strings.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []string
}

var _ notifications.Service = (*RecordingNotifier)(nil)

func (r *RecordingNotifier) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns the captured events in order.
func (r *RecordingNotifier) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *RecordingNotifier) NotifyReportCommitted(_ context.Context, operator int64, rec store.Identity) error {
	r.record(fmt.Sprintf("report id%d by %d", rec.ID, operator))
	return nil
}

func (r *RecordingNotifier) NotifyIdentityDeleted(_ context.Context, id int64) error {
	r.record(fmt.Sprintf("deleted id%d", id))
	return nil
}

func (r *RecordingNotifier) NotifyImportCompleted(_ context.Context, imported, skipped int) error {
	r.record(fmt.Sprintf("import %d/%d", imported, skipped))
	return nil
}

func (r *RecordingNotifier) TestNotification(context.Context) error {
	r.record("test")
	return nil
}

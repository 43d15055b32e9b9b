package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"cheatdb/internal/directory"
)

// probeProfile is a long-lived public profile used to confirm the token works.
const probeProfile = "id1"

// CheckDirectoryAPI verifies that the directory API answers with the
// configured token. It makes a single lookup bounded by timeout.
func CheckDirectoryAPI(ctx context.Context, lookup directory.Lookup, timeout time.Duration) Result {
	const name = "Directory API"
	if lookup == nil {
		return Result{Name: name, Detail: "API token missing"}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entry, err := lookup.Lookup(checkCtx, probeProfile)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if !entry.Found() {
		return Result{Name: name, Detail: "probe profile not found"}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "lookup timed out (directory API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "lookup timed out (directory API unreachable)"
	}
	var apiErr *directory.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("api error %d: %s", apiErr.Code, apiErr.Message)
	}
	return err.Error()
}

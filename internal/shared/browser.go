package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// launchers maps a GOOS to the command that hands a URL to the desktop.
var launchers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// browserCommand returns the launcher invocation for rawURL on goos. Only http(s) URLs are accepted.
func browserCommand(goos, rawURL string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: refusing to open %q", ErrInvalidArgument, rawURL)
	}

	launcher, ok := launchers[goos]
	if !ok {
		return nil, fmt.Errorf("cannot open a browser on %s", goos)
	}
	return append(append([]string{}, launcher...), u.String()), nil
}

// OpenBrowser hands the authorization URL to the system browser without waiting for it to exit.
func OpenBrowser(rawURL string) error {
	argv, err := browserCommand(getRuntime(), rawURL)
	if err != nil {
		return err
	}

	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

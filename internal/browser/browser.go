package browser

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Open shows an http(s) URL or a local HTML page in the platform browser.
func Open(target string) error {
	resolved, err := resolve(target)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", resolved).Start()
	case "linux":
		return exec.Command("xdg-open", resolved).Start()
	case "windows":
		// Use rundll32 instead of cmd /c start to avoid shell interpretation
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", resolved).Start()
	default:
		return exec.Command("xdg-open", resolved).Start()
	}
}

// resolve turns target into something safe to hand to the platform opener.
// Local pages become file URLs; other schemes are refused.
func resolve(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("nothing to open")
	}
	if filepath.IsAbs(target) || !strings.Contains(target, ":") {
		return localPage(target)
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	return target, nil
}

func localPage(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".html" && ext != ".htm" {
		return "", fmt.Errorf("refusing to open %s: not an HTML page", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("opening %s: is a directory", path)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

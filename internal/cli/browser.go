package cli

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser launches the platform browser at the given URL.
func openBrowser(targetURL string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", targetURL).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", targetURL).Start()
	case "linux":
		return exec.Command("xdg-open", targetURL).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

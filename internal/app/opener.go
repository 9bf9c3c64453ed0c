package app

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener launches URLs in the system browser. Opening is fire-and-forget:
// the command is started and its exit status is ignored, since a blocked or
// failed viewer is not an application error.
type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

func (o *Opener) Open(url string) error {
	if url == "" {
		return fmt.Errorf("no url to open")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

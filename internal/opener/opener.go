// Package opener hands finished artifacts to the OS shell.
package opener

import (
	"log"
	"os/exec"
	"runtime"
)

// Shell opens files and folders with the platform's default handler.
// Failures are logged and swallowed; reports are already on disk.
type Shell struct{}

func New() Shell { return Shell{} }

func (Shell) Open(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Could not open %s: %v", path, err)
		return
	}
	// Detach; the viewer owns its own lifetime.
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("Opening %s: %v", path, err)
		}
	}()
}

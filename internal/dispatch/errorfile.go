package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// ErrorFiles writes error_<YYYYMMDD_HHMMSS>.log side files. They exist for
// post-mortems of failures the console itself could not show because it
// was mid-transition.
type ErrorFiles struct {
	Dir string
	Now func() time.Time
}

// Write persists err and returns the file path.
func (e *ErrorFiles) Write(source string, cause error) (string, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	dir := e.Dir
	if dir == "" {
		dir = "."
	}

	name := fmt.Sprintf("error_%s.log", now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	body := fmt.Sprintf("Error in %s: %s\n", source, ansi.Strip(cause.Error()))
	// Errors within the same second share a file.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return path, fmt.Errorf("failed to write error log %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return path, fmt.Errorf("failed to write error log %s: %w", path, err)
	}
	return path, nil
}

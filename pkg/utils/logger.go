package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Logger for debug messages
var (
	mu        sync.Mutex
	isVerbose = false
	logFile   *os.File
)

// Log prints debug messages to the log file if verbose mode is enabled
func Log(text string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if isVerbose && logFile != nil {
		log.Printf(text, args...)
	}
}

// DefaultLogPath returns today's log file in the temp directory
func DefaultLogPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("focusflow_%s.log", time.Now().Format("2006-01-02")))
}

// InitLogger initializes the logging system. The standard logger is
// redirected to the file so nothing is written over the terminal UI.
func InitLogger(verbose bool, path string) error {
	mu.Lock()
	defer mu.Unlock()

	isVerbose = verbose
	if !verbose {
		log.SetOutput(io.Discard)
		return nil
	}

	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := tea.LogToFile(path, "focusflow")
	if err != nil {
		isVerbose = false
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	log.Printf("Verbose logging enabled")
	return nil
}

// CloseLogger closes the log file if it's open
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	isVerbose = false
}

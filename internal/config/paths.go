package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the directories regpulse reads from and writes to
type Paths struct {
	ExecutableDir string
	WorkingDir    string
	DataDir       string
	ExportsDir    string
	LogsDir       string
}

// GetPaths resolves the application directories. Relative locations are
// anchored at the working directory; the executable directory is the
// fallback used by ResolveFile.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dataDir := filepath.Join(wd, "data")
	return &Paths{
		ExecutableDir: filepath.Dir(exe),
		WorkingDir:    wd,
		DataDir:       dataDir,
		ExportsDir:    filepath.Join(dataDir, "exports"),
		LogsDir:       filepath.Join(wd, "logs"),
	}, nil
}

// EnsureDirectories creates the writable directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ResolveFile maps a configured file location to an existing path.
// Absolute paths are returned untouched. Relative paths are tried against
// the working directory first, then next to the executable so that a
// packaged binary finds its bundled sample data.
func (p *Paths) ResolveFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	candidates := []string{
		filepath.Join(p.WorkingDir, name),
		filepath.Join(p.ExecutableDir, name),
	}
	for _, candidate := range candidates {
		if FileExists(candidate) {
			return candidate
		}
	}
	return candidates[0]
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs the resolved directories for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("working", p.WorkingDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		))
}

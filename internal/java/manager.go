package java

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// requirement pairs a version-ID prefix with the major JDK feature release
// Mojang ships for it. Entries are checked in order; the first prefix match
// wins, so more specific prefixes must precede their broader fallbacks.
type requirement struct {
	prefix string
	major  int
}

var javaRequirements = []requirement{
	{"1.21", 21},
	{"1.20", 17},
	{"1.19", 17},
	{"1.18", 17},
	{"1.17", 17},
	{"1.16", 8},
}

const defaultJavaMajor = 8

// RequiredMajor resolves which JDK feature release a game version needs. An
// explicit override (from the version descriptor's java_version field) takes
// precedence over the built-in prefix table.
func RequiredMajor(versionID string, override int) int {
	if override > 0 {
		return override
	}
	for _, req := range javaRequirements {
		if strings.HasPrefix(versionID, req.prefix) {
			return req.major
		}
	}
	return defaultJavaMajor
}

// Manager resolves a usable java executable for a required major version,
// trying the managed runtime cache, then system installations, then
// downloading from Adoptium, in that order.
type Manager struct {
	detector   *Detector
	downloader *Downloader
	managedDir string
}

func NewManager(managedDir string) *Manager {
	return &Manager{
		detector:   NewDetector(),
		downloader: NewDownloader(),
		managedDir: managedDir,
	}
}

// Ensure returns a path to a java executable satisfying major, acquiring one
// if necessary.
func (m *Manager) Ensure(ctx context.Context, major int, progressCb func(string)) (string, error) {
	if progressCb == nil {
		progressCb = func(string) {}
	}

	if path, ok := m.managedExecutable(major); ok {
		return path, nil
	}

	progressCb("Checking system Java installations...")
	if inst := m.detector.FindBest(major); inst != nil && inst.Satisfies(major) {
		return inst.Path, nil
	}

	return m.downloader.DownloadRuntime(ctx, major, m.managedDir, progressCb)
}

func (m *Manager) managedExecutable(major int) (string, bool) {
	versionDir := filepath.Join(m.managedDir, strconv.Itoa(major))
	path, err := m.downloader.FindJavaExecutable(versionDir)
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Package launch handles the Minecraft launch pipeline: Java acquisition,
// library/asset materialization, native extraction, argument construction,
// and process spawn with early-exit detection.
package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/glauncher/glauncher/internal/config"
	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/download"
	"github.com/glauncher/glauncher/internal/glerr"
	"github.com/glauncher/glauncher/internal/java"
)

// earlyExitWindow is how long after spawn the launcher keeps watching for an
// immediate crash before declaring the launch itself successful.
const earlyExitWindow = 2 * time.Second

// Status represents the current launch step.
type Status struct {
	Step       string
	Progress   float64
	Message    string
	IsComplete bool
	Error      error
	LogLine    *LogLine
}

// Options contains launch configuration. VersionInfo is expected to already
// carry any loader overlay merge (Fabric/Forge) applied upstream.
type Options struct {
	Instance    *core.Instance
	VersionInfo *core.VersionDetails
	JavaPath    string
	PlayerName  string
	UUID        string
	AccessToken string
	Offline     bool
	Verify      bool // forces SHA-1 re-verification even if the instance is marked fully downloaded
	Config      *config.Config

	UpdateLastPlayed func(id string) error
	UpdateInstance   func(inst *core.Instance) error
}

// LogLine is a single line of captured game process output.
type LogLine struct {
	Text string
	Type string // "stdout" or "stderr"
}

// Launcher drives one end-to-end launch of a prepared instance.
type Launcher struct {
	opts       *Options
	statusChan chan<- Status
	cfg        *config.Config
	host       core.HostFingerprint
}

// NewLauncher creates a new launcher.
func NewLauncher(opts *Options, statusChan chan<- Status) *Launcher {
	return &Launcher{
		opts:       opts,
		statusChan: statusChan,
		cfg:        opts.Config,
		host:       core.CurrentHost(),
	}
}

// Launch executes the full launch pipeline: Java, libraries, assets,
// natives, game directories, then process spawn.
func (l *Launcher) Launch(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Checking Java", l.ensureJava},
		{"Downloading libraries", l.downloadLibraries},
		{"Downloading assets", l.downloadAssets},
		{"Extracting natives", l.extractNatives},
		{"Preparing game", l.prepareGame},
		{"Launching", l.launchGame},
	}

	for i, step := range steps {
		l.sendStatus(Status{
			Step:     step.name,
			Progress: float64(i) / float64(len(steps)),
			Message:  step.name + "...",
		})

		if err := step.fn(ctx); err != nil {
			l.sendStatus(Status{Step: step.name, Message: err.Error(), Error: err})
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if l.opts.Instance != nil && l.opts.UpdateInstance != nil {
		l.opts.Instance.IsFullyDownloaded = true
		l.opts.Instance.CachedAt = time.Now()
		_ = l.opts.UpdateInstance(l.opts.Instance)
	}

	l.sendStatus(Status{Step: "Complete", Progress: 1.0, Message: "Game closed.", IsComplete: true})
	return nil
}

func (l *Launcher) sendStatus(s Status) {
	if l.statusChan != nil {
		select {
		case l.statusChan <- s:
		default:
		}
	}
}

func (l *Launcher) ensureJava(ctx context.Context) error {
	if l.opts.JavaPath != "" {
		return nil
	}
	if l.opts.Instance != nil && l.opts.Instance.JavaPath != "" {
		if _, err := os.Stat(l.opts.Instance.JavaPath); err == nil {
			l.commitJavaPath(l.opts.Instance.JavaPath)
			return nil
		}
	}
	if l.cfg.JavaPath != "" {
		if _, err := os.Stat(l.cfg.JavaPath); err == nil {
			l.commitJavaPath(l.cfg.JavaPath)
			return nil
		}
	}

	required := java.RequiredMajor(l.opts.VersionInfo.ID, l.opts.VersionInfo.JavaVersion.MajorVersion)
	managedDir := filepath.Join(l.cfg.DataDir, "java")

	mgr := java.NewManager(managedDir)
	path, err := mgr.Ensure(ctx, required, func(msg string) {
		l.sendStatus(Status{Step: "Checking Java", Message: msg})
	})
	if err != nil {
		return &glerr.JavaMissingError{Major: required}
	}

	l.commitJavaPath(path)
	return nil
}

func (l *Launcher) commitJavaPath(path string) {
	l.opts.JavaPath = path
	if l.opts.Instance != nil && l.opts.UpdateInstance != nil {
		l.opts.Instance.JavaPath = path
		_ = l.opts.UpdateInstance(l.opts.Instance)
	}
}

func (l *Launcher) downloadLibraries(ctx context.Context) error {
	if !l.opts.Verify && l.opts.Instance != nil && l.opts.Instance.IsFullyDownloaded {
		return nil
	}

	items := ResolveLibraries(l.opts.VersionInfo, l.cfg.LibrariesDir, l.host)
	clientItem, _ := ClientJarItem(l.opts.VersionInfo, l.cfg.LibrariesDir)
	items = append(items, clientItem)

	return l.performDownload(ctx, "Downloading libraries", items, LibraryFanoutConcurrency)
}

func (l *Launcher) downloadAssets(ctx context.Context) error {
	if !l.opts.Verify && l.opts.Instance != nil && l.opts.Instance.IsFullyDownloaded {
		return nil
	}

	mgr := download.NewManager()
	items, err := FetchAssetIndex(ctx, mgr, l.opts.VersionInfo.AssetIndex, l.cfg.AssetsDir)
	if err != nil {
		return err
	}

	progress := l.progressChan("Downloading assets")
	result, err := mgr.FetchAll(ctx, items, AssetFanoutConcurrency, progress)
	close(progress)
	if err != nil {
		return err
	}
	// Missing optional assets are tolerated: the game runs with gaps in
	// resource packs/sounds rather than refusing to start.
	if result.Failed > 0 {
		slog.Warn("some assets failed to download", "failed", result.Failed, "total", len(items))
	}
	return nil
}

func (l *Launcher) extractNatives(ctx context.Context) error {
	nativesDir := filepath.Join(l.opts.Instance.Path, "natives")
	return ExtractNatives(l.opts.VersionInfo, l.cfg.LibrariesDir, nativesDir, l.host)
}

func (l *Launcher) prepareGame(ctx context.Context) error {
	inst := l.opts.Instance
	dirs := []string{
		inst.Path,
		filepath.Join(inst.Path, ".minecraft"),
		filepath.Join(inst.Path, ".minecraft", "mods"),
		filepath.Join(inst.Path, ".minecraft", "resourcepacks"),
		filepath.Join(inst.Path, ".minecraft", "saves"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

func (l *Launcher) launchGame(ctx context.Context) error {
	version := l.opts.VersionInfo
	inst := l.opts.Instance
	gameDir := filepath.Join(inst.Path, ".minecraft")

	placeholders := PlaceholderContext{
		PlayerName:     l.playerName(),
		UUID:           l.opts.UUID,
		AccessToken:    l.opts.AccessToken,
		VersionName:    version.ID,
		VersionType:    string(version.Type),
		GameDirectory:  gameDir,
		AssetsRoot:     l.cfg.AssetsDir,
		AssetIndexName: version.AssetIndex.ID,
		LibrariesDir:   l.cfg.LibrariesDir,
		NativesDir:     filepath.Join(inst.Path, "natives"),
		ResolutionW:    inst.ResolutionW,
		ResolutionH:    inst.ResolutionH,
	}

	_, clientJarPath := ClientJarItem(version, l.cfg.LibrariesDir)
	classpath := BuildClasspath(l.cfg.LibrariesDir, version.Libraries, l.host, clientJarPath)

	args := BuildJVMArgs(version, inst, placeholders, l.host, l.cfg.JVMArgs)
	args = append(args, "-cp", classpath, version.MainClass)
	args = append(args, BuildGameArgs(version, placeholders, l.host)...)

	cmd := exec.CommandContext(ctx, l.opts.JavaPath, args...)
	cmd.Dir = gameDir

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return &glerr.SpawnFailureError{Reason: err.Error()}
	}

	l.sendStatus(Status{Step: "Playing", Message: "Game running..."})
	if l.opts.UpdateLastPlayed != nil {
		_ = l.opts.UpdateLastPlayed(inst.ID)
	}

	go l.streamLog(stdout, "stdout")
	go l.streamLog(stderr, "stderr")

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				return &glerr.EarlyExitError{Code: exitErr.ExitCode()}
			}
			return fmt.Errorf("game exited with error: %w", err)
		}
		return nil
	case <-time.After(earlyExitWindow):
		// Survived the early-exit window; detach and let it run for the
		// rest of the session without blocking the pipeline any further.
		go func() { <-waitErr }()
		return nil
	}
}

func (l *Launcher) streamLog(r io.Reader, streamType string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := scanner.Text()

		important := streamType == "stderr" ||
			strings.Contains(text, "[FATAL]") ||
			strings.Contains(text, "[ERROR]") ||
			strings.Contains(text, "[WARN]") ||
			strings.Contains(text, "Exception") ||
			strings.Contains(text, "Error")

		if important {
			l.sendStatus(Status{Step: "Launching", LogLine: &LogLine{Text: text, Type: streamType}})
		}
	}
}

func (l *Launcher) playerName() string {
	if l.opts.PlayerName != "" {
		return l.opts.PlayerName
	}
	return "Player"
}

func (l *Launcher) progressChan(stepName string) chan download.Progress {
	progressChan := make(chan download.Progress, 10)
	go func() {
		for p := range progressChan {
			percent := 0.0
			if p.TotalBytes > 0 {
				percent = float64(p.DownloadedBytes) / float64(p.TotalBytes)
			} else if p.TotalItems > 0 {
				percent = float64(p.CompletedItems) / float64(p.TotalItems)
			}
			l.sendStatus(Status{
				Step:     stepName,
				Progress: percent,
				Message:  fmt.Sprintf("Downloading %s (%s)", p.CurrentItem, download.FormatSpeed(p.Speed)),
			})
		}
	}()
	return progressChan
}

func (l *Launcher) performDownload(ctx context.Context, stepName string, items []download.Item, concurrency int) error {
	if len(items) == 0 {
		return nil
	}

	mgr := download.NewManager()
	progress := l.progressChan(stepName)
	result, err := mgr.FetchAll(ctx, items, concurrency, progress)
	close(progress)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d items failed to download", result.Failed)
	}
	return nil
}

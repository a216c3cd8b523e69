// Package orchestrator sequences the end-to-end launch pipeline: version
// resolution, loader overlay, and delegation to the launch package for
// materialization and process spawn. It is UI-independent; callers supply a
// progress callback and read back a terminal error or nil.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/glauncher/glauncher/internal/api"
	"github.com/glauncher/glauncher/internal/auth"
	"github.com/glauncher/glauncher/internal/config"
	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/download"
	"github.com/glauncher/glauncher/internal/glerr"
	"github.com/glauncher/glauncher/internal/java"
	"github.com/glauncher/glauncher/internal/launch"
	"github.com/glauncher/glauncher/internal/loader"
)

var forgeHTTPClient = &http.Client{Timeout: 5 * time.Minute}

// ProgressFunc receives a human-readable stage name as the pipeline advances.
type ProgressFunc func(stage string)

// Request bundles everything the orchestrator needs to run one launch.
type Request struct {
	Instance *core.Instance
	Offline  bool
	Verify   bool

	Config    *config.Config
	Instances *core.InstanceManager
	Accounts  *auth.Manager
}

// Run drives FetchManifest -> ResolveVersion -> FetchDescriptor ->
// MaybeOverlay -> (download/extract/classpath/java/launch, delegated to
// internal/launch.Launcher) for a single instance.
func Run(ctx context.Context, req Request, progress ProgressFunc, statusChan chan<- launch.Status) error {
	if progress == nil {
		progress = func(string) {}
	}

	inst := req.Instance
	cfg := req.Config

	progress("Resolving version")
	mojang := api.NewMojangClient(cfg.DataDir)
	details, err := mojang.ResolveVersionDetails(ctx, inst.Version, req.Offline)
	if err != nil {
		return fmt.Errorf("resolving version %s: %w", inst.Version, err)
	}
	if details.MainClass == "" {
		return &glerr.ParseError{What: "version descriptor missing mainClass"}
	}

	if inst.Loader != core.LoaderVanilla {
		progress("Applying loader overlay")
		details, err = applyOverlay(ctx, inst, details, cfg)
		if err != nil {
			return fmt.Errorf("applying %s overlay: %w", inst.Loader, err)
		}
	}

	playerName := "Player"
	uuid := auth.OfflineUUID(playerName)
	accessToken := ""

	if req.Offline {
		if req.Accounts != nil {
			if acc, ok := req.Accounts.ActiveAccount(); ok {
				playerName, uuid = acc.Name, auth.OfflineUUID(acc.Name)
			}
		}
	} else if req.Accounts != nil {
		acc, err := req.Accounts.LaunchAccount(ctx)
		if err != nil {
			return fmt.Errorf("resolving active account: %w", err)
		}
		playerName, uuid, accessToken = acc.Name, acc.UUID, acc.MCAccessToken
	}

	launcher := launch.NewLauncher(&launch.Options{
		Instance:         inst,
		VersionInfo:      details,
		Offline:          req.Offline,
		Verify:           req.Verify,
		PlayerName:       playerName,
		UUID:             uuid,
		AccessToken:      accessToken,
		Config:           cfg,
		UpdateLastPlayed: req.Instances.UpdateLastPlayed,
		UpdateInstance:   req.Instances.Update,
	}, statusChan)

	return launcher.Launch(ctx)
}

// applyOverlay merges a Fabric or Forge loader profile into the vanilla
// version descriptor, producing the final descriptor the launch package
// materializes and spawns.
func applyOverlay(ctx context.Context, inst *core.Instance, vanilla *core.VersionDetails, cfg *config.Config) (*core.VersionDetails, error) {
	switch inst.Loader {
	case core.LoaderFabric, core.LoaderQuilt:
		client := loader.NewFabricClient()
		loaderVersion := inst.LoaderVer
		if loaderVersion == "" {
			latest, err := client.LatestStableLoader(ctx)
			if err != nil {
				return nil, err
			}
			loaderVersion = latest
		}
		profile, err := client.Profile(ctx, inst.Version, loaderVersion)
		if err != nil {
			return nil, err
		}
		return loader.MergeProfile(vanilla, profile), nil

	case core.LoaderForge, core.LoaderNeoForge:
		// NeoForge is a Forge fork that kept the installer/install_profile.json
		// format and processor pipeline; it differs only in its Maven host,
		// which is out of scope for this pass (see DESIGN.md).
		return applyForgeOverlay(ctx, inst, vanilla, cfg)

	default:
		return nil, &glerr.ParseError{What: "unsupported loader " + string(inst.Loader)}
	}
}

// applyForgeOverlay runs the Forge installer's processors against the
// vanilla descriptor. Processors transform the client jar in place and
// need a working Java and the vanilla libraries/client jar already on
// disk, so both are materialized here before the processor run, ahead of
// the pipeline's own DownloadLibraries/EnsureJava stages.
func applyForgeOverlay(ctx context.Context, inst *core.Instance, vanilla *core.VersionDetails, cfg *config.Config) (*core.VersionDetails, error) {
	host := core.CurrentHost()

	javaPath := inst.JavaPath
	if javaPath == "" {
		required := java.RequiredMajor(vanilla.ID, vanilla.JavaVersion.MajorVersion)
		mgr := java.NewManager(filepath.Join(cfg.DataDir, "java"))
		path, err := mgr.Ensure(ctx, required, nil)
		if err != nil {
			return nil, &glerr.JavaMissingError{Major: required}
		}
		javaPath = path
		inst.JavaPath = path
	}

	items := launch.ResolveLibraries(vanilla, cfg.LibrariesDir, host)
	clientItem, clientJarPath := launch.ClientJarItem(vanilla, cfg.LibrariesDir)
	items = append(items, clientItem)

	dlMgr := download.NewManager()
	if result, err := dlMgr.FetchAll(ctx, items, launch.LibraryFanoutConcurrency, nil); err != nil {
		return nil, err
	} else if result.Failed > 0 {
		return nil, fmt.Errorf("%d vanilla libraries failed to download before Forge install", result.Failed)
	}

	client := loader.NewForgeClient()
	var version loader.ForgeVersion
	if inst.LoaderVer != "" {
		version = loader.ForgeVersion{MCVersion: inst.Version, ForgeVersion: inst.LoaderVer, FullVersion: inst.Version + "-" + inst.LoaderVer}
	} else {
		recommended, err := client.Recommended(ctx, inst.Version)
		if err != nil {
			return nil, err
		}
		version = *recommended
	}

	cacheDir := filepath.Join(cfg.DataDir, "forge_installers")
	installerPath, err := loader.DownloadInstaller(ctx, forgeHTTPClient, version, cacheDir)
	if err != nil {
		return nil, err
	}

	profile, err := loader.ParseInstallProfile(installerPath)
	if err != nil {
		return nil, err
	}
	doc, err := loader.ExtractVersionDoc(installerPath, profile)
	if err != nil {
		return nil, err
	}

	forgeLibs := &core.VersionDetails{Libraries: append(append([]core.Library{}, profile.Libraries...), doc.Libraries...)}
	var forgeItems []download.Item
	for _, it := range launch.ResolveLibraries(forgeLibs, cfg.LibrariesDir, host) {
		if it.URL != "" { // processor outputs carry no download URL
			forgeItems = append(forgeItems, it)
		}
	}
	if result, err := dlMgr.FetchAll(ctx, forgeItems, launch.LibraryFanoutConcurrency, nil); err != nil {
		return nil, err
	} else if result.Failed > 0 {
		return nil, fmt.Errorf("%d Forge libraries failed to download", result.Failed)
	}

	dataDir := filepath.Join(cfg.DataDir, "forge_data", version.FullVersion)
	if err := loader.ExtractInstallerData(installerPath, dataDir); err != nil {
		return nil, err
	}

	runner := loader.NewProcessorRunner(cfg.LibrariesDir, dataDir, javaPath)
	if err := runner.Run(ctx, profile, clientJarPath, installerPath); err != nil {
		return nil, err
	}

	return loader.MergeVersionDoc(vanilla, doc), nil
}

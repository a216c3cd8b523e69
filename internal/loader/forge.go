package loader

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/glerr"
)

const (
	forgeMavenURL       = "https://maven.minecraftforge.net"
	forgePromotionsURL  = "https://files.minecraftforge.net/maven/net/minecraftforge/forge/promotions_slim.json"
)

// ForgeVersion identifies one published Forge build for an MC version.
type ForgeVersion struct {
	MCVersion     string
	ForgeVersion  string
	FullVersion   string // "1.20.1-47.2.0"
	IsRecommended bool
	IsLatest      bool
}

func (v ForgeVersion) InstallerURL() string {
	return fmt.Sprintf("%s/net/minecraftforge/forge/%s/forge-%s-installer.jar", forgeMavenURL, v.FullVersion, v.FullVersion)
}

type forgePromotions struct {
	Promos map[string]string `json:"promos"`
}

// ForgeClient fetches promotion/version metadata from Forge's Maven host.
type ForgeClient struct {
	httpClient *http.Client
}

func NewForgeClient() *ForgeClient {
	return &ForgeClient{httpClient: &http.Client{}}
}

// Promotions lists every known Forge build, newest MC version first, with
// recommended builds sorted ahead of merely-latest ones.
func (c *ForgeClient) Promotions(ctx context.Context) ([]ForgeVersion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, forgePromotionsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &glerr.NetworkError{Op: forgePromotionsURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &glerr.HTTPStatusError{URL: forgePromotionsURL, Code: resp.StatusCode}
	}

	var promos forgePromotions
	if err := json.NewDecoder(resp.Body).Decode(&promos); err != nil {
		return nil, &glerr.ParseError{What: "forge promotions", Err: err}
	}

	byFull := make(map[string]*ForgeVersion)
	for key, forgeVer := range promos.Promos {
		idx := strings.LastIndex(key, "-")
		if idx < 0 {
			continue
		}
		mcVersion, kind := key[:idx], key[idx+1:]
		full := mcVersion + "-" + forgeVer

		v, ok := byFull[full]
		if !ok {
			v = &ForgeVersion{MCVersion: mcVersion, ForgeVersion: forgeVer, FullVersion: full}
			byFull[full] = v
		}
		switch kind {
		case "recommended":
			v.IsRecommended = true
		case "latest":
			v.IsLatest = true
		}
	}

	versions := make([]ForgeVersion, 0, len(byFull))
	for _, v := range byFull {
		versions = append(versions, *v)
	}
	sort.Slice(versions, func(i, j int) bool {
		if versions[i].MCVersion != versions[j].MCVersion {
			return versionLess(versions[j].MCVersion, versions[i].MCVersion)
		}
		return versions[i].IsRecommended && !versions[j].IsRecommended
	})
	return versions, nil
}

// Recommended returns the recommended Forge build for an MC version, if any.
func (c *ForgeClient) Recommended(ctx context.Context, mcVersion string) (*ForgeVersion, error) {
	all, err := c.Promotions(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range all {
		if v.MCVersion == mcVersion && v.IsRecommended {
			return &v, nil
		}
	}
	return nil, &glerr.NotFoundError{Kind: "forge recommended build", Key: mcVersion}
}

// versionLess orders two Minecraft version strings oldest-first. Release
// version cores ("1.20.1") parse as semver directly; anything else (snapshot
// IDs, odd pre-release tags Forge occasionally promotes against) falls back
// to a numeric-segment comparison.
func versionLess(a, b string) bool {
	va, aErr := semver.NewVersion(a)
	vb, bErr := semver.NewVersion(b)
	if aErr == nil && bErr == nil {
		return va.LessThan(vb)
	}

	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, _ := strconv.Atoi(pa[i])
		nb, _ := strconv.Atoi(pb[i])
		if na != nb {
			return na < nb
		}
	}
	return len(pa) < len(pb)
}

// InstallProfile is install_profile.json from the installer JAR.
type InstallProfile struct {
	Version   string                    `json:"version"`
	Minecraft string                    `json:"minecraft"`
	JSON      string                    `json:"json"`
	Libraries []core.Library            `json:"libraries"`
	Processors []Processor              `json:"processors"`
	Data      map[string]DataEntry      `json:"data"`
}

// Processor is one post-install step: run a tool JAR with substituted args.
type Processor struct {
	Jar       string   `json:"jar"`
	Classpath []string `json:"classpath"`
	Args      []string `json:"args"`
	Sides     []string `json:"sides"`
}

// ClientSide reports whether this processor should run for a client install
// (processors with no sides list run on every side).
func (p Processor) ClientSide() bool {
	if len(p.Sides) == 0 {
		return true
	}
	for _, s := range p.Sides {
		if s == "client" {
			return true
		}
	}
	return false
}

// DataEntry supplies the client/server-specific value substituted for {KEY}.
type DataEntry struct {
	Client string `json:"client"`
	Server string `json:"server,omitempty"`
}

// VersionDoc is the version document bundled in the installer, merged over
// the vanilla descriptor after processors have run.
type VersionDoc struct {
	ID                 string          `json:"id"`
	InheritsFrom        string         `json:"inheritsFrom"`
	Type               string          `json:"type"`
	MainClass          string          `json:"mainClass"`
	Arguments          *core.Arguments `json:"arguments,omitempty"`
	MinecraftArguments string          `json:"minecraftArguments,omitempty"`
	Libraries          []core.Library  `json:"libraries"`
}

// DownloadInstaller fetches the Forge installer JAR into a content-addressed
// cache directory, skipping the network round-trip if already present.
func DownloadInstaller(ctx context.Context, client *http.Client, version ForgeVersion, cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(cacheDir, fmt.Sprintf("forge-%s-installer.jar", version.FullVersion))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, version.InstallerURL(), nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &glerr.NetworkError{Op: version.InstallerURL(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &glerr.HTTPStatusError{URL: version.InstallerURL(), Code: resp.StatusCode}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// ParseInstallProfile reads install_profile.json out of the installer JAR.
func ParseInstallProfile(installerPath string) (*InstallProfile, error) {
	r, err := zip.OpenReader(installerPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := readZipEntry(&r.Reader, "install_profile.json")
	if err != nil {
		return nil, &glerr.NotFoundError{Kind: "install_profile.json", Key: installerPath}
	}

	var profile InstallProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, &glerr.ParseError{What: "install_profile.json", Err: err}
	}
	return &profile, nil
}

// ExtractVersionDoc reads the version document referenced by the install
// profile's json field (defaulting to "version.json").
func ExtractVersionDoc(installerPath string, profile *InstallProfile) (*VersionDoc, error) {
	path := strings.TrimPrefix(profile.JSON, "/")
	if path == "" {
		path = "version.json"
	}

	r, err := zip.OpenReader(installerPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := readZipEntry(&r.Reader, path)
	if err != nil {
		return nil, &glerr.NotFoundError{Kind: "version document", Key: path}
	}

	var doc VersionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &glerr.ParseError{What: "forge version document", Err: err}
	}
	return &doc, nil
}

// ExtractInstallerData copies the installer's data/ tree into destDir,
// stripping the "data/" prefix, for the processors' {/path…} placeholders.
func ExtractInstallerData(installerPath, destDir string) error {
	r, err := zip.OpenReader(installerPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, "data/") {
			continue
		}
		rel := strings.TrimPrefix(f.Name, "data/")
		target := filepath.Join(destDir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func readZipEntry(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, os.ErrNotExist
}

// ProcessorRunner executes a profile's client-side processors in order.
type ProcessorRunner struct {
	librariesDir string
	dataDir      string
	javaPath     string
}

func NewProcessorRunner(librariesDir, dataDir, javaPath string) *ProcessorRunner {
	return &ProcessorRunner{librariesDir: librariesDir, dataDir: dataDir, javaPath: javaPath}
}

// Run executes every client-side processor from profile, in declared order.
func (r *ProcessorRunner) Run(ctx context.Context, profile *InstallProfile, mcJarPath, installerPath string) error {
	for _, proc := range profile.Processors {
		if !proc.ClientSide() {
			continue
		}
		if err := r.runOne(ctx, proc, profile, mcJarPath, installerPath); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProcessorRunner) runOne(ctx context.Context, proc Processor, profile *InstallProfile, mcJarPath, installerPath string) error {
	processorPath, ok := mavenPath(proc.Jar)
	if !ok {
		return &glerr.ParseError{What: "processor jar coordinate: " + proc.Jar}
	}
	processorJar := filepath.Join(r.librariesDir, processorPath)

	classpath := []string{processorJar}
	for _, cp := range proc.Classpath {
		p, ok := mavenPath(cp)
		if !ok {
			continue
		}
		classpath = append(classpath, filepath.Join(r.librariesDir, p))
	}

	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}

	mainClass, err := jarMainClass(processorJar)
	if err != nil {
		return err
	}

	args := make([]string, 0, len(proc.Args))
	for _, a := range proc.Args {
		args = append(args, r.substitutePlaceholder(a, profile, mcJarPath, installerPath))
	}

	cmdArgs := append([]string{"-cp", strings.Join(classpath, sep), mainClass}, args...)
	cmd := exec.CommandContext(ctx, r.javaPath, cmdArgs...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		tail := stderr.String()
		if len(tail) > 4096 {
			tail = tail[len(tail)-4096:]
		}
		return &glerr.ProcessorFailureError{Name: proc.Jar, ExitCode: exitCode, StderrTail: tail}
	}
	return nil
}

// substitutePlaceholder resolves one processor argument token: {KEY} reads
// from profile.data (or a well-known key), [maven:coord] resolves to a
// library path, everything else passes through unchanged.
func (r *ProcessorRunner) substitutePlaceholder(arg string, profile *InstallProfile, mcJarPath, installerPath string) string {
	if strings.HasPrefix(arg, "{") && strings.HasSuffix(arg, "}") {
		key := arg[1 : len(arg)-1]
		switch key {
		case "MINECRAFT_JAR":
			return mcJarPath
		case "SIDE":
			return "client"
		case "INSTALLER":
			return installerPath
		}
		if entry, ok := profile.Data[key]; ok {
			return r.resolveDataValue(entry.Client)
		}
		return arg
	}

	if strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]") {
		if path, ok := mavenPath(arg[1 : len(arg)-1]); ok {
			return filepath.Join(r.librariesDir, path)
		}
	}

	return arg
}

func (r *ProcessorRunner) resolveDataValue(value string) string {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		if path, ok := mavenPath(value[1 : len(value)-1]); ok {
			return filepath.Join(r.librariesDir, path)
		}
	}
	if strings.HasPrefix(value, "/") {
		rel := strings.TrimPrefix(strings.TrimPrefix(value, "/"), "data/")
		return filepath.Join(r.dataDir, rel)
	}
	return value
}

func jarMainClass(jarPath string) (string, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	raw, err := readZipEntry(&r.Reader, "META-INF/MANIFEST.MF")
	if err != nil {
		return "", &glerr.NotFoundError{Kind: "MANIFEST.MF", Key: jarPath}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "Main-Class:"); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", &glerr.NotFoundError{Kind: "Main-Class manifest entry", Key: jarPath}
}

// MergeVersionDoc overlays a Forge version document onto the vanilla
// descriptor: main class and inherits_from come from the doc, its libraries
// are appended after vanilla's (Forge does not dedupe by group:artifact the
// way the Fabric overlay does), and string-typed arguments.game/arguments.jvm
// entries are appended after vanilla's rather than replacing them.
func MergeVersionDoc(vanilla *core.VersionDetails, doc *VersionDoc) *core.VersionDetails {
	merged := *vanilla
	merged.MainClass = doc.MainClass
	merged.InheritsFrom = doc.InheritsFrom
	merged.Libraries = append(append([]core.Library{}, vanilla.Libraries...), doc.Libraries...)

	if doc.Arguments != nil {
		merged.Arguments = &core.Arguments{
			Game: append(append([]core.ArgumentEntry{}, vanilla.GameArgsTemplate()...), doc.Arguments.Game...),
			JVM:  append(append([]core.ArgumentEntry{}, vanilla.JVMArgsTemplate()...), doc.Arguments.JVM...),
		}
	} else if doc.MinecraftArguments != "" {
		merged.MinecraftArguments = doc.MinecraftArguments
		merged.Arguments = nil
	}
	return &merged
}

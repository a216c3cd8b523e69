package launch

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/glauncher/glauncher/internal/core"
)

const (
	launcherBrand   = "glauncher"
	launcherVersion = "0.1.0"

	defaultResolutionW = 854
	defaultResolutionH = 480
)

// PlaceholderContext supplies every value substitutable into a JVM or game
// argument template.
type PlaceholderContext struct {
	PlayerName     string
	UUID           string
	AccessToken    string
	VersionName    string
	VersionType    string
	GameDirectory  string
	AssetsRoot     string
	AssetIndexName string
	LibrariesDir   string
	NativesDir     string
	ResolutionW    int
	ResolutionH    int
}

func classpathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

func (c PlaceholderContext) values() map[string]string {
	w, h := c.ResolutionW, c.ResolutionH
	if w == 0 {
		w = defaultResolutionW
	}
	if h == 0 {
		h = defaultResolutionH
	}

	return map[string]string{
		"${auth_player_name}":             c.PlayerName,
		"${version_name}":                 c.VersionName,
		"${game_directory}":               c.GameDirectory,
		"${assets_root}":                  c.AssetsRoot,
		"${assets_index_name}":            c.AssetIndexName,
		"${auth_uuid}":                    c.UUID,
		"${auth_access_token}":            c.AccessToken,
		"${user_type}":                    "msa",
		"${version_type}":                 c.VersionType,
		"${clientid}":                     "",
		"${auth_xuid}":                    "",
		"${resolution_width}":             fmt.Sprintf("%d", w),
		"${resolution_height}":            fmt.Sprintf("%d", h),
		"${launcher_name}":                launcherBrand,
		"${launcher_version}":             launcherVersion,
		"${library_directory}":            c.LibrariesDir,
		"${classpath_separator}":          classpathSeparator(),
		"${natives_directory}":            c.NativesDir,
		"${quickPlayPath}":                "",
		"${quickPlaySingleplayer}":        "",
		"${quickPlayMultiplayer}":         "",
		"${quickPlayRealms}":              "",
	}
}

func substitute(template string, values map[string]string) string {
	out := template
	for k, v := range values {
		out = strings.ReplaceAll(out, k, v)
	}
	return out
}

// BuildJVMArgs assembles the JVM argument vector in the fixed order: memory
// flags, brand pair, macOS LWJGL flag, rule-filtered descriptor template
// args, then extra args. The instance's own extra_jvm_args take precedence;
// defaultExtraArgs (the config-level jvmArgs default) is used only when the
// instance doesn't set any of its own.
func BuildJVMArgs(descriptor *core.VersionDetails, inst *core.Instance, ctx PlaceholderContext, host core.HostFingerprint, defaultExtraArgs []string) []string {
	values := ctx.values()

	memMin := inst.MemoryMin
	if memMin == "" {
		memMin = "512M"
	}
	memMax := inst.MemoryMax
	if memMax == "" {
		memMax = "2G"
	}

	args := []string{
		"-Xms" + memMin,
		"-Xmx" + memMax,
		"-Dminecraft.launcher.brand=" + launcherBrand,
		"-Dminecraft.launcher.version=" + launcherVersion,
	}

	if host.OSFamily == "macos" {
		args = append(args, "-XstartOnFirstThread")
	}

	for _, entry := range descriptor.JVMArgsTemplate() {
		if !core.EvaluateRules(entry.Rules, host) {
			continue
		}
		for _, v := range entry.Values {
			args = append(args, substitute(v, values))
		}
	}

	if len(inst.ExtraJVMArgs) > 0 {
		args = append(args, inst.ExtraJVMArgs...)
	} else {
		args = append(args, defaultExtraArgs...)
	}
	return args
}

// BuildGameArgs assembles the game argument vector: legacy descriptors
// split minecraft_arguments on whitespace; modern descriptors evaluate each
// entry's rules (feature-conditioned entries are always discarded), then
// every resulting token passes through placeholder substitution and the
// demo/unresolved/empty/dangling-flag cleanup pass.
func BuildGameArgs(descriptor *core.VersionDetails, ctx PlaceholderContext, host core.HostFingerprint) []string {
	values := ctx.values()

	var raw []string
	for _, entry := range descriptor.GameArgsTemplate() {
		if hasFeatureRule(entry.Rules) {
			continue
		}
		if !core.EvaluateRules(entry.Rules, host) {
			continue
		}
		for _, v := range entry.Values {
			raw = append(raw, substitute(v, values))
		}
	}

	return cleanupGameArgs(raw)
}

func hasFeatureRule(rules []core.Rule) bool {
	for _, r := range rules {
		if r.Features != nil {
			return true
		}
	}
	return false
}

// cleanupGameArgs drops --demo, unresolved ${…} tokens, and empty tokens;
// when a value token is dropped, its preceding --<flag> token is dropped too
// so no dangling flag remains.
func cleanupGameArgs(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		drop := tok == "--demo" || tok == "" || strings.Contains(tok, "${")
		if drop {
			if tok != "--demo" && len(out) > 0 && strings.HasPrefix(out[len(out)-1], "--") {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, tok)
	}
	return out
}

// BuildClasspath joins library paths with the game jar in descriptor
// library order, using the host path separator.
func BuildClasspath(librariesDir string, libraries []core.Library, host core.HostFingerprint, clientJarPath string) string {
	var paths []string
	for _, lib := range libraries {
		if !core.IncludedLibrary(lib, host) {
			continue
		}
		if lib.Downloads == nil || lib.Downloads.Artifact == nil {
			continue
		}
		paths = append(paths, filepath.Join(librariesDir, lib.Downloads.Artifact.Path))
	}
	paths = append(paths, clientJarPath)
	return strings.Join(paths, classpathSeparator())
}

package launch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/download"
	"github.com/glauncher/glauncher/internal/glerr"
)

// LibraryFanoutConcurrency is the bounded fan-out width for library
// downloads, fixed per the concurrency model.
const LibraryFanoutConcurrency = 8

// ResolveLibraries computes the download items for every included library
// plus its native-classifier JAR, skipping libraries whose rules exclude
// this host.
func ResolveLibraries(descriptor *core.VersionDetails, librariesDir string, host core.HostFingerprint) []download.Item {
	var items []download.Item
	for _, lib := range descriptor.Libraries {
		if !core.IncludedLibrary(lib, host) {
			continue
		}
		if lib.Downloads == nil {
			continue
		}
		if artifact := lib.Downloads.Artifact; artifact != nil {
			items = append(items, download.Item{
				URL:  artifact.URL,
				Path: filepath.Join(librariesDir, artifact.Path),
				SHA1: artifact.SHA1,
				Size: artifact.Size,
			})
		}

		if classifier, ok := legacyNativeClassifier(lib, host); ok {
			if art, ok := lib.Downloads.Classifiers[classifier]; ok {
				items = append(items, download.Item{
					URL:  art.URL,
					Path: filepath.Join(librariesDir, art.Path),
					SHA1: art.SHA1,
					Size: art.Size,
				})
			}
		}
	}
	return items
}

// legacyNativeClassifier resolves a library's legacy `natives` map entry
// (OS name -> classifier template, possibly containing "${arch}") against
// the host. "${arch}" substitutes to "64" on 64-bit hosts, "32" otherwise.
func legacyNativeClassifier(lib core.Library, host core.HostFingerprint) (string, bool) {
	if lib.Natives == nil {
		return "", false
	}
	template, ok := lib.Natives[host.OSName()]
	if !ok {
		return "", false
	}
	arch := "32"
	if host.Arch == "x64" || host.Arch == "arm64" {
		arch = "64"
	}
	return strings.ReplaceAll(template, "${arch}", arch), true
}

// hostNativeClassifier returns the modern Maven classifier naming the
// native archive for the current host, per the host-native classifier
// selection table (macOS x arm64 -> natives-macos-arm64, macOS x64 ->
// natives-macos, Windows x64 -> natives-windows, Windows x86 ->
// natives-windows-x86, Linux -> natives-linux). Empty if the host has no
// modern-form classifier (shouldn't happen for the hosts Minecraft ships
// for, but keeps the lookup total).
func hostNativeClassifier(host core.HostFingerprint) string {
	switch host.OSFamily {
	case "macos":
		if host.Arch == "arm64" {
			return "natives-macos-arm64"
		}
		return "natives-macos"
	case "windows":
		if host.Arch == "x86" {
			return "natives-windows-x86"
		}
		return "natives-windows"
	case "linux":
		return "natives-linux"
	}
	return ""
}

// libraryClassifier returns the 4th Maven-coordinate segment of a library
// name ("group:artifact:version:classifier"), if present.
func libraryClassifier(name string) (string, bool) {
	parts := strings.Split(name, ":")
	if len(parts) < 4 {
		return "", false
	}
	return parts[3], true
}

// nativeJarPath returns the on-disk path of lib's native archive for host
// and whether lib is native-bearing at all. Legacy-form libraries carry
// their native archive under downloads.classifiers; modern-form libraries
// (a library whose own Maven classifier matches the host's native
// classifier) carry it as their one and only artifact.
func nativeJarPath(lib core.Library, librariesDir string, host core.HostFingerprint) (string, bool) {
	if classifier, ok := legacyNativeClassifier(lib, host); ok {
		if art, ok := lib.Downloads.Classifiers[classifier]; ok {
			return filepath.Join(librariesDir, art.Path), true
		}
		return "", false
	}

	if modern := hostNativeClassifier(host); modern != "" {
		if cls, ok := libraryClassifier(lib.Name); ok && cls == modern && lib.Downloads.Artifact != nil {
			return filepath.Join(librariesDir, lib.Downloads.Artifact.Path), true
		}
	}
	return "", false
}

// ClientJarItem returns the download item for the version's client JAR.
func ClientJarItem(descriptor *core.VersionDetails, librariesDir string) (download.Item, string) {
	path := filepath.Join(librariesDir, "com", "mojang", "minecraft", descriptor.ID,
		fmt.Sprintf("minecraft-%s-client.jar", descriptor.ID))

	client := descriptor.Downloads.Client
	if client == nil {
		return download.Item{Path: path}, path
	}
	return download.Item{URL: client.URL, Path: path, SHA1: client.SHA1, Size: client.Size}, path
}

// ExtractNatives empties nativesDir and unpacks every native-bearing
// library's archive (legacy classifier form or modern artifact form) for
// the current host into it, honoring each library's extract.exclude
// prefix list.
func ExtractNatives(descriptor *core.VersionDetails, librariesDir, nativesDir string, host core.HostFingerprint) error {
	if err := os.RemoveAll(nativesDir); err != nil {
		return err
	}
	if err := os.MkdirAll(nativesDir, 0o755); err != nil {
		return err
	}

	for _, lib := range descriptor.Libraries {
		if !core.IncludedLibrary(lib, host) || lib.Downloads == nil {
			continue
		}
		jarPath, ok := nativeJarPath(lib, librariesDir, host)
		if !ok {
			continue
		}

		var exclude []string
		if lib.Extract != nil {
			exclude = lib.Extract.Exclude
		}
		if err := extractNativeJar(jarPath, nativesDir, exclude); err != nil {
			return err
		}
	}
	return nil
}

// nativeLibraryExtensions are the platform-native file extensions
// extracted from a native-classifier JAR; everything else in the archive
// (license files, module-info, build metadata) is left behind.
var nativeLibraryExtensions = []string{".dylib", ".so", ".dll", ".jnilib"}

func hasNativeExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range nativeLibraryExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// extractNativeJar unpacks jarPath into destDir, skipping directories,
// META-INF, and any entry matching an exclude prefix, and extracting only
// entries with a platform-native extension.
func extractNativeJar(jarPath, destDir string, exclude []string) error {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return &glerr.NotFoundError{Kind: "native jar", Key: jarPath}
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		if excluded(f.Name, exclude) {
			continue
		}
		if !hasNativeExtension(f.Name) {
			continue
		}

		target := filepath.Join(destDir, filepath.Base(f.Name))
		if err := extractZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func excluded(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func extractZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

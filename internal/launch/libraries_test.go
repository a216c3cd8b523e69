package launch

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/glauncher/glauncher/internal/core"
)

// writeTestZip builds a zip archive at path containing the given entries.
func writeTestZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %q: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip file: %v", err)
	}
}

func TestExtractNativeJar_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "natives.jar")
	writeTestZip(t, jarPath, map[string]string{
		"liblwjgl.so":          "native payload",
		"liblwjgl.dylib":       "native payload",
		"lwjgl.dll":            "native payload",
		"README.txt":           "not native",
		"META-INF/MANIFEST.MF": "manifest",
		"nested/dir/":          "",
	})

	destDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := extractNativeJar(jarPath, destDir, nil); err != nil {
		t.Fatalf("extractNativeJar: %v", err)
	}

	wantPresent := []string{"liblwjgl.so", "liblwjgl.dylib", "lwjgl.dll"}
	for _, name := range wantPresent {
		if _, err := os.Stat(filepath.Join(destDir, name)); err != nil {
			t.Errorf("expected %s to be extracted: %v", name, err)
		}
	}

	wantAbsent := []string{"README.txt", "MANIFEST.MF"}
	for _, name := range wantAbsent {
		if _, err := os.Stat(filepath.Join(destDir, name)); err == nil {
			t.Errorf("did not expect %s to be extracted", name)
		}
	}
}

func TestExtractNativeJar_HonorsExclude(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "natives.jar")
	writeTestZip(t, jarPath, map[string]string{
		"libshared.so":     "keep",
		"exclude/libold.so": "drop",
	})

	destDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := extractNativeJar(jarPath, destDir, []string{"exclude/"}); err != nil {
		t.Fatalf("extractNativeJar: %v", err)
	}

	if _, err := os.Stat(filepath.Join(destDir, "libshared.so")); err != nil {
		t.Errorf("expected libshared.so to be extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(destDir, "libold.so")); err == nil {
		t.Errorf("did not expect excluded entry to be extracted")
	}
}

func TestLegacyNativeClassifier_ArchSubstitution(t *testing.T) {
	lib := core.Library{
		Natives: map[string]string{
			"osx":     "natives-osx",
			"linux":   "natives-linux-${arch}",
			"windows": "natives-windows-${arch}",
		},
	}

	cases := []struct {
		host core.HostFingerprint
		want string
	}{
		{core.HostFingerprint{OSFamily: "linux", Arch: "x64"}, "natives-linux-64"},
		{core.HostFingerprint{OSFamily: "linux", Arch: "arm64"}, "natives-linux-64"},
		{core.HostFingerprint{OSFamily: "windows", Arch: "x86"}, "natives-windows-32"},
		{core.HostFingerprint{OSFamily: "macos", Arch: "arm64"}, "natives-osx"},
	}

	for _, tc := range cases {
		got, ok := legacyNativeClassifier(lib, tc.host)
		if !ok {
			t.Errorf("host %+v: expected ok", tc.host)
			continue
		}
		if got != tc.want {
			t.Errorf("host %+v: got %q, want %q", tc.host, got, tc.want)
		}
	}
}

func TestHostNativeClassifier(t *testing.T) {
	cases := []struct {
		host core.HostFingerprint
		want string
	}{
		{core.HostFingerprint{OSFamily: "macos", Arch: "arm64"}, "natives-macos-arm64"},
		{core.HostFingerprint{OSFamily: "macos", Arch: "x64"}, "natives-macos"},
		{core.HostFingerprint{OSFamily: "windows", Arch: "x64"}, "natives-windows"},
		{core.HostFingerprint{OSFamily: "windows", Arch: "x86"}, "natives-windows-x86"},
		{core.HostFingerprint{OSFamily: "linux", Arch: "x64"}, "natives-linux"},
	}
	for _, tc := range cases {
		if got := hostNativeClassifier(tc.host); got != tc.want {
			t.Errorf("host %+v: got %q, want %q", tc.host, got, tc.want)
		}
	}
}

func TestNativeJarPath_ModernForm(t *testing.T) {
	host := core.HostFingerprint{OSFamily: "macos", Arch: "arm64"}
	lib := core.Library{
		Name: "org.lwjgl:lwjgl:3.3.3:natives-macos-arm64",
		Downloads: &core.LibraryDownloads{
			Artifact: &core.Artifact{Path: "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-macos-arm64.jar"},
		},
	}

	path, ok := nativeJarPath(lib, "/libs", host)
	if !ok {
		t.Fatal("expected modern-form native jar to be detected")
	}
	want := filepath.Join("/libs", "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-macos-arm64.jar")
	if path != want {
		t.Errorf("nativeJarPath = %q, want %q", path, want)
	}
}

func TestNativeJarPath_ModernForm_NoMatchOnOtherHost(t *testing.T) {
	host := core.HostFingerprint{OSFamily: "linux", Arch: "x64"}
	lib := core.Library{
		Name: "org.lwjgl:lwjgl:3.3.3:natives-macos-arm64",
		Downloads: &core.LibraryDownloads{
			Artifact: &core.Artifact{Path: "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-macos-arm64.jar"},
		},
	}

	if _, ok := nativeJarPath(lib, "/libs", host); ok {
		t.Error("expected no native jar match for a host whose classifier does not match the library")
	}
}

func TestNativeJarPath_LegacyForm(t *testing.T) {
	host := core.HostFingerprint{OSFamily: "linux", Arch: "x64"}
	lib := core.Library{
		Natives: map[string]string{"linux": "natives-linux"},
		Downloads: &core.LibraryDownloads{
			Classifiers: map[string]*core.Artifact{
				"natives-linux": {Path: "org/lwjgl/lwjgl/2.9.3/lwjgl-2.9.3-natives-linux.jar"},
			},
		},
	}

	path, ok := nativeJarPath(lib, "/libs", host)
	if !ok {
		t.Fatal("expected legacy-form native jar to be detected")
	}
	want := filepath.Join("/libs", "org/lwjgl/lwjgl/2.9.3/lwjgl-2.9.3-natives-linux.jar")
	if path != want {
		t.Errorf("nativeJarPath = %q, want %q", path, want)
	}
}

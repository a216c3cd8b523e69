// Package loader implements Fabric and Forge overlays over a vanilla
// version descriptor.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/glerr"
)

const fabricMetaURL = "https://meta.fabricmc.net/v2"

// FabricLoaderVersion describes one entry of the loader-versions endpoint.
type FabricLoaderVersion struct {
	Separator string `json:"separator"`
	Build     int    `json:"build"`
	Maven     string `json:"maven"`
	Version   string `json:"version"`
	Stable    bool   `json:"stable"`
}

// FabricProfile is the merged version document served under
// /versions/loader/{mc}/{loader}/profile/json.
type FabricProfile struct {
	ID           string          `json:"id"`
	InheritsFrom string          `json:"inheritsFrom"`
	ReleaseTime  string          `json:"releaseTime"`
	Time         string          `json:"time"`
	Type         string          `json:"type"`
	MainClass    string          `json:"mainClass"`
	Arguments    *FabricArgs     `json:"arguments,omitempty"`
	Libraries    []FabricLibrary `json:"libraries"`
}

type FabricArgs struct {
	Game []string `json:"game"`
	JVM  []string `json:"jvm"`
}

// FabricLibrary is the loader-metadata library entry, which carries a base
// repository URL rather than a resolved artifact path/SHA1/size.
type FabricLibrary struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FabricClient talks to the Fabric meta server.
type FabricClient struct {
	httpClient *http.Client
}

func NewFabricClient() *FabricClient {
	return &FabricClient{httpClient: &http.Client{}}
}

// LoaderVersions lists all published Fabric loader versions, newest first.
func (c *FabricClient) LoaderVersions(ctx context.Context) ([]FabricLoaderVersion, error) {
	var versions []FabricLoaderVersion
	if err := c.getJSON(ctx, fmt.Sprintf("%s/versions/loader", fabricMetaURL), &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// LatestStableLoader returns the newest loader version flagged stable.
func (c *FabricClient) LatestStableLoader(ctx context.Context) (string, error) {
	versions, err := c.LoaderVersions(ctx)
	if err != nil {
		return "", err
	}
	for _, v := range versions {
		if v.Stable {
			return v.Version, nil
		}
	}
	return "", &glerr.NotFoundError{Kind: "fabric loader", Key: "stable"}
}

// Profile fetches the merged profile document for an mc version + loader version pair.
func (c *FabricClient) Profile(ctx context.Context, mcVersion, loaderVersion string) (*FabricProfile, error) {
	url := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", fabricMetaURL, mcVersion, loaderVersion)
	var profile FabricProfile
	if err := c.getJSON(ctx, url, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *FabricClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &glerr.NetworkError{Op: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &glerr.HTTPStatusError{URL: url, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &glerr.ParseError{What: "fabric profile", Err: err}
	}
	return nil
}

// convertLibraries maps Fabric's {name, url} library shape onto the
// vanilla Library struct, synthesizing the Maven artifact path and a
// download URL (falling back to the Fabric Maven mirror when no base
// URL is given). Fabric's meta server does not publish a SHA1/size pair.
func convertLibraries(libs []FabricLibrary) []core.Library {
	out := make([]core.Library, 0, len(libs))
	for _, fl := range libs {
		path, ok := mavenPath(fl.Name)
		if !ok {
			out = append(out, core.Library{Name: fl.Name, URL: fl.URL})
			continue
		}

		base := fl.URL
		if base == "" {
			base = "https://maven.fabricmc.net/"
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}

		out = append(out, core.Library{
			Name: fl.Name,
			URL:  fl.URL,
			Downloads: &core.LibraryDownloads{
				Artifact: &core.Artifact{
					Path: path,
					URL:  base + path,
				},
			},
		})
	}
	return out
}

// mavenPath synthesizes "group/artifact/version/artifact-version[-classifier].ext"
// from a Maven coordinate "group:artifact:version[:classifier][@ext]". The
// "@ext" suffix (pervasive in Forge installer data/processor args, e.g.
// "[...:userdev@jar]") overrides the default "jar" extension and is stripped
// before the coordinate is split on ":".
func mavenPath(coord string) (string, bool) {
	ext := "jar"
	if at := strings.LastIndex(coord, "@"); at >= 0 {
		ext = coord[at+1:]
		coord = coord[:at]
	}

	parts := strings.Split(coord, ":")
	if len(parts) < 3 {
		return "", false
	}
	group := strings.ReplaceAll(parts[0], ".", "/")
	artifact, version := parts[1], parts[2]

	filename := fmt.Sprintf("%s-%s", artifact, version)
	if len(parts) > 3 {
		filename += "-" + parts[3]
	}
	return fmt.Sprintf("%s/%s/%s/%s.%s", group, artifact, version, filename, ext), true
}

func groupArtifactKey(coord string) (string, bool) {
	parts := strings.SplitN(coord, ":", 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + ":" + parts[1], true
}

// MergeProfile overlays a Fabric profile onto a vanilla version descriptor:
// the main class is replaced, vanilla libraries sharing a group:artifact
// with a Fabric library are dropped, and Fabric's libraries are appended so
// they take precedence on the classpath.
func MergeProfile(vanilla *core.VersionDetails, profile *FabricProfile) *core.VersionDetails {
	merged := *vanilla
	merged.MainClass = profile.MainClass
	merged.InheritsFrom = profile.InheritsFrom

	fabricLibs := convertLibraries(profile.Libraries)

	overridden := make(map[string]bool, len(fabricLibs))
	for _, lib := range fabricLibs {
		if key, ok := groupArtifactKey(lib.Name); ok {
			overridden[key] = true
		}
	}

	kept := make([]core.Library, 0, len(vanilla.Libraries))
	for _, lib := range vanilla.Libraries {
		if key, ok := groupArtifactKey(lib.Name); ok && overridden[key] {
			continue
		}
		kept = append(kept, lib)
	}
	merged.Libraries = append(kept, fabricLibs...)

	if profile.Arguments != nil {
		merged.Arguments = &core.Arguments{
			Game: append(append([]core.ArgumentEntry{}, vanilla.GameArgsTemplate()...), stringsToEntries(profile.Arguments.Game)...),
			JVM:  append(append([]core.ArgumentEntry{}, vanilla.JVMArgsTemplate()...), stringsToEntries(profile.Arguments.JVM)...),
		}
	}

	return &merged
}

func stringsToEntries(values []string) []core.ArgumentEntry {
	entries := make([]core.ArgumentEntry, 0, len(values))
	for _, v := range values {
		entries = append(entries, core.ArgumentEntry{Values: []string{v}})
	}
	return entries
}

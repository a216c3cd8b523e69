package launch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/download"
	"github.com/glauncher/glauncher/internal/glerr"
)

// AssetFanoutConcurrency is the bounded fan-out width for asset object
// downloads, fixed per the concurrency model.
const AssetFanoutConcurrency = 16

const resourcesBaseURL = "https://resources.download.minecraft.net"

// assetObject is a single entry of the asset index's "objects" map.
type assetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

type assetIndexDoc struct {
	Objects map[string]assetObject `json:"objects"`
}

// FetchAssetIndex downloads (if missing) and parses the version's asset
// index into the content-addressed object list under assetsDir.
func FetchAssetIndex(ctx context.Context, mgr *download.Manager, ref core.AssetIndexRef, assetsDir string) ([]download.Item, error) {
	indexPath := filepath.Join(assetsDir, "indexes", ref.ID+".json")

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		item := download.Item{URL: ref.URL, Path: indexPath, SHA1: ref.SHA1, Size: ref.Size}
		if err := mgr.Fetch(ctx, item); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, &glerr.NotFoundError{Kind: "asset index", Key: indexPath}
	}

	var doc assetIndexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &glerr.ParseError{What: "asset index " + ref.ID, Err: err}
	}

	items := make([]download.Item, 0, len(doc.Objects))
	for _, obj := range doc.Objects {
		// Zero-sized objects are fetched without SHA-1 verification.
		sha := obj.Hash
		if obj.Size == 0 {
			sha = ""
		}
		items = append(items, download.Item{
			URL:  fmt.Sprintf("%s/%s/%s", resourcesBaseURL, obj.Hash[:2], obj.Hash),
			Path: download.ObjectPath(assetsDir, obj.Hash),
			SHA1: sha,
			Size: obj.Size,
		})
	}
	return items, nil
}

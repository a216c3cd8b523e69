package orchestrator

import (
	"context"
	"testing"

	"github.com/glauncher/glauncher/internal/config"
	"github.com/glauncher/glauncher/internal/core"
	"github.com/glauncher/glauncher/internal/glerr"
)

func TestApplyOverlay_UnsupportedLoaderRejected(t *testing.T) {
	inst := &core.Instance{Loader: core.LoaderType("bogus"), LoaderVer: "1"}
	vanilla := &core.VersionDetails{MainClass: "net.minecraft.client.main.Main"}

	_, err := applyOverlay(context.Background(), inst, vanilla, &config.Config{})
	if err == nil {
		t.Fatal("expected an error for an unrecognized loader type")
	}
	var parseErr *glerr.ParseError
	if !asParseError(err, &parseErr) {
		t.Errorf("expected a *glerr.ParseError, got %T: %v", err, err)
	}
}

func asParseError(err error, target **glerr.ParseError) bool {
	if pe, ok := err.(*glerr.ParseError); ok {
		*target = pe
		return true
	}
	return false
}

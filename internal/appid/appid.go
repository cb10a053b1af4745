package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/namelens/dentalnames/internal/assets/appidentity"
)

// The embedded app.yaml is the fallback when no .fulmen/app.yaml is found
// above the working directory. FULMEN_APP_IDENTITY_PATH still wins.
func init() {
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the process-wide identity (binary name, env prefix, config name).
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

package appidentityassets

import _ "embed"

// YAML is the embedded copy of `.fulmen/app.yaml` so a standalone binary
// still resolves its identity outside the repository.
//
//go:embed app.yaml
var YAML []byte

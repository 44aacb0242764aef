package config

// DefaultManifestName is the manifest file the CLI looks for when --manifest
// is not given.
const DefaultManifestName = "declbridge.yaml"

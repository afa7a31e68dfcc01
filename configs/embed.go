// Package configs provides the embedded configuration template for pdffind.
//
// The template is embedded at build time so 'pdffind config init' works in
// every distribution, source builds and binary releases alike.
package configs

import _ "embed"

// ConfigTemplate is the annotated starting point written by
// 'pdffind config init' to <user-config-dir>/pdffind/config.yaml.
//
//go:embed config.example.yaml
var ConfigTemplate string

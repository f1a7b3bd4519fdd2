// Package config is the opaque configuration surface algorithm nodes
// decode against: a per-node parameter Bag backed by hcl.Body, plus the
// plugin/algorithm defaults and output items module registration needs.
// Loading an on-disk format into that surface is out of scope; see
// config.go's package comment.
package config

// internal/app/system/namespace/namespace.go

// Package namespace qualifies collection names with a deployment partition
// string, so several independent CarLine deployments can share one MongoDB
// database without seeing each other's documents.
package namespace

// Qualify prefixes a collection name with the deployment namespace.
// An empty namespace leaves the name untouched.
func Qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

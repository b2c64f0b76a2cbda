// Package files discovers match datasets on disk for batch report runs.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data")
//	datasets, err := discovery.FindDatasets("odi", false)
//
// Only files dataset.DetectFormat accepts are returned, so every result can
// be handed to the report service as is.
package files

// Package uptrack is the data model shared by the uptrack monitor and its external collaborators.
//
// Records of this package are written to the history store, read back by the window aggregator, and exported to the summary emitters.
package uptrack

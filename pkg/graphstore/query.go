package graphstore

import (
	"errors"
	"slices"
)

// Query names an analytical query. The name doubles as the result column.
type Query string

// The analytical battery, in results-table column order.
const (
	// TotalPackages counts Package nodes.
	TotalPackages Query = "TotalPackages"
	// TotalTransitiveDependencies counts distinct packages at the end of a
	// path of two or more dependency edges of any type.
	TotalTransitiveDependencies Query = "TotalTransitiveDependencies"
	// TotalCyclicDependencies counts paths that start and end on the same
	// node, following edges of any type without reusing an edge.
	TotalCyclicDependencies Query = "TotalCyclicDependencies"
	// TotalOptionalDependencies counts OPTIONALDEPENDENCIES edges.
	TotalOptionalDependencies Query = "TotalOptionalDependencies"
	// TotalPeerDependencies counts PEERDEPENDENCIES edges.
	TotalPeerDependencies Query = "TotalPeerDependencies"
	// GraphDensity is 2E / (N(N-1)) over all edge types; 0 when N <= 1.
	GraphDensity Query = "GraphDensity"
	// AveragePathLength averages the length of every path of one or more
	// edges, where no edge repeats within a path.
	AveragePathLength Query = "AveragePathLength"
	// UnusedDependencies counts packages with no incoming and no outgoing
	// DEPENDENCIES edge.
	UnusedDependencies Query = "UnusedDependencies"
	// MostDependedOnPackage is the maximum in-degree over all edge types.
	MostDependedOnPackage Query = "MostDependedOnPackage"
	// VersionMismatch counts install paths that are shared by depended-on
	// packages with more than one distinct version.
	VersionMismatch Query = "VersionMismatch"
)

// Battery is the fixed query battery in column order.
var Battery = []Query{
	TotalPackages,
	TotalTransitiveDependencies,
	TotalCyclicDependencies,
	TotalOptionalDependencies,
	TotalPeerDependencies,
	GraphDensity,
	AveragePathLength,
	UnusedDependencies,
	MostDependedOnPackage,
	VersionMismatch,
}

// ErrUnknownQuery is returned by stores for a query outside [Battery].
var ErrUnknownQuery = errors.New("unknown query")

// Known reports whether q is part of [Battery].
func (q Query) Known() bool {
	return slices.Contains(Battery, q)
}

// Package lockfile normalizes npm package-lock.json files into a canonical
// dependency map.
//
// Two lockfile layouts are supported:
//
//   - Schema v1 (lockfileVersion 1): a nested "dependencies" tree where each
//     entry lists its logical requirements under "requires" and may carry its
//     own nested "dependencies" for version resolution.
//   - Schema v2+ (lockfileVersion 2 and 3): a flat "packages" map keyed by
//     install path ("node_modules/a/node_modules/b").
//
// Both produce a [DependencyMap], an insertion-ordered mapping from package
// identifier to [Record]. v1 identifiers have the form "name@version"; v2
// identifiers embed the install path, "name@version (node_modules/name)".
// Child references inside a record always use the unresolved "name@range"
// form and may point at identifiers that are not keys of the same map.
//
// # Usage
//
//	data, _ := os.ReadFile("package-lock.json")
//	m, err := lockfile.ParseAuto(data)
//	if err != nil {
//	    return err
//	}
//	for id, rec := range m.All() {
//	    fmt.Println(id, rec.Dependencies)
//	}
//
// [ProcessDir] applies a parser to every JSON file in a directory, skipping
// (and logging) files that fail to parse.
package lockfile

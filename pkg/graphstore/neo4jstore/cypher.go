package neo4jstore

import (
	"fmt"
	"strings"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
)

const (
	clearCypher = `MATCH (n) DETACH DELETE n`

	constraintCypher = `CREATE CONSTRAINT package_name_version IF NOT EXISTS
FOR (p:Package) REQUIRE (p.name, p.version) IS UNIQUE`

	mergeNodeCypher = `MERGE (p:Package {name: $name, version: $version})
SET p.path = $path`
)

// mergeRelationshipCypher returns the relationship merge for rt. Relationship
// types cannot be parameters, so rt must already be validated.
func mergeRelationshipCypher(rt graphstore.RelType) string {
	return fmt.Sprintf(`MATCH (a:Package {name: $fromName, version: $fromVersion}),
      (b:Package {name: $toName, version: $toVersion})
MERGE (a)-[:%s]->(b)
RETURN count(*) AS merged`, rt)
}

const anyRel = "DEPENDENCIES|PEERDEPENDENCIES|OPTIONALDEPENDENCIES"

var batteryCypher = map[graphstore.Query]string{
	graphstore.TotalPackages: `MATCH (p:Package)
RETURN count(p) AS TotalPackages`,

	graphstore.TotalTransitiveDependencies: `MATCH (:Package)-[:` + anyRel + `*2..]->(d:Package)
RETURN count(DISTINCT d) AS TotalTransitiveDependencies`,

	graphstore.TotalCyclicDependencies: `MATCH path = (p:Package)-[:` + anyRel + `*]->(p)
RETURN count(path) AS TotalCyclicDependencies`,

	graphstore.TotalOptionalDependencies: `MATCH ()-[r:OPTIONALDEPENDENCIES]->()
RETURN count(r) AS TotalOptionalDependencies`,

	graphstore.TotalPeerDependencies: `MATCH ()-[r:PEERDEPENDENCIES]->()
RETURN count(r) AS TotalPeerDependencies`,

	graphstore.GraphDensity: `MATCH (p:Package)
WITH count(p) AS nodes
OPTIONAL MATCH ()-[r:` + anyRel + `]->()
WITH nodes, count(r) AS edges
RETURN CASE WHEN nodes <= 1 THEN 0.0
       ELSE (2.0 * edges) / (nodes * (nodes - 1)) END AS GraphDensity`,

	graphstore.AveragePathLength: `MATCH path = (:Package)-[:` + anyRel + `*]->(:Package)
RETURN avg(length(path)) AS AveragePathLength`,

	graphstore.UnusedDependencies: `MATCH (p:Package)
WHERE NOT (p)-[:DEPENDENCIES]->() AND NOT ()-[:DEPENDENCIES]->(p)
RETURN count(p) AS UnusedDependencies`,

	graphstore.MostDependedOnPackage: `MATCH (p:Package)<-[r:` + anyRel + `]-()
WITH p, count(r) AS dependents
RETURN max(dependents) AS MostDependedOnPackage`,

	graphstore.VersionMismatch: `MATCH (:Package)-[:` + anyRel + `]->(d:Package)
WITH d.path AS path, collect(DISTINCT d.version) AS versions
WHERE size(versions) > 1
RETURN count(path) AS VersionMismatch`,
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

package driver

// IndexQueries are run by BuildIndices.
var IndexQueries = []string{
	"CREATE INDEX ON :Entity(node_id);",
	"CREATE INDEX ON :Entity(class);",
	"CREATE INDEX ON :Entity(entity_type);",
	"CREATE INDEX ON :Resolution(key);",
}

// Edge types that never count as a connection between two entities.
var nonConnectingEdges = []string{"NOT_SAME_AS", "MERGED_INTO"}

const (
	SaveEntityQuery = `
		MERGE (n:Entity {node_id: $node_id})
		SET n += $props
		RETURN n.node_id AS node_id
	`

	SaveRelationQuery = `
		MATCH (a:Entity {node_id: $source})
		MATCH (b:Entity {node_id: $target})
		MERGE (a)-[r:RELATES_TO {type: $type}]->(b)
		RETURN count(r) AS edges
	`

	GetNodeQuery = `
		MATCH (n:Entity {node_id: $node_id})
		OPTIONAL MATCH (n)-[r]-(m:Entity)
		WHERE NOT type(r) IN $excluded
		RETURN n AS node, collect({target: m.node_id, type: coalesce(r.type, type(r))}) AS edges
	`

	GetNodesByClassQuery = `
		MATCH (n:Entity)
		WHERE (toLower(n.class) = $class OR toLower(n.entity_type) = $class) AND n.merged_into IS NULL
		OPTIONAL MATCH (n)-[r]-(m:Entity)
		WHERE NOT type(r) IN $excluded
		WITH n, collect({target: m.node_id, type: coalesce(r.type, type(r))}) AS edges
		RETURN n AS node, edges
		ORDER BY n.node_id
	`

	GetConnectedNodeIDsQuery = `
		MATCH (n:Entity {node_id: $node_id})-[r]-(m:Entity)
		WHERE NOT type(r) IN $excluded
		RETURN DISTINCT m.node_id AS node_id
	`

	HasEdgeQuery = `
		MATCH (a:Entity {node_id: $a})-[r]-(b:Entity {node_id: $b})
		WHERE NOT type(r) IN $excluded
		RETURN count(r) > 0 AS found
	`

	GetRepelledNodeIDsQuery = `
		MATCH (n:Entity {node_id: $node_id})-[:NOT_SAME_AS]-(m:Entity)
		RETURN DISTINCT m.node_id AS node_id
	`

	// ClaimResolutionQuery reports fresh = true only to the call that
	// created the ledger entry.
	ClaimResolutionQuery = `
		MERGE (r:Resolution {key: $key})
		ON CREATE SET r.action = $action, r.reason = $reason, r.created_at = $created_at, r.fresh = true
		ON MATCH SET r.fresh = false
		RETURN r.fresh AS fresh
	`

	ReleaseClaimQuery = `
		MATCH (r:Resolution {key: $key})
		DELETE r
	`

	MergeNodesQuery = `
		MERGE (rep:Entity {node_id: $node_id})
		SET rep += $props, rep.merged_from = $merged_from, rep.merge_reason = $reason, rep.merged_at = $created_at
		WITH rep
		UNWIND $merged_from AS source_id
		MATCH (s:Entity {node_id: source_id})
		MERGE (s)-[m:MERGED_INTO]->(rep)
		SET s.merged_into = rep.node_id, m.reason = $reason
		RETURN count(m) AS merged
	`

	// Pair edges are written from the lower to the higher node id so the
	// same pair always MERGEs onto one relationship.
	CreateNotSameAsQuery = `
		MATCH (a:Entity {node_id: $a})
		MATCH (b:Entity {node_id: $b})
		MERGE (a)-[r:NOT_SAME_AS]->(b)
		ON CREATE SET r.reason = $reason, r.created_at = $created_at
		RETURN count(r) AS edges
	`

	CreateRelatedButDistinctQuery = `
		MATCH (a:Entity {node_id: $a})
		MATCH (b:Entity {node_id: $b})
		MERGE (a)-[r:RELATED_BUT_DISTINCT]->(b)
		ON CREATE SET r.reason = $reason, r.created_at = $created_at
		RETURN count(r) AS edges
	`
)

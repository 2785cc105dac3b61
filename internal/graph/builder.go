package graph

import (
	"context"
	"fmt"

	"save-edit-tool/internal/savegame"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Builder writes save reference graphs into Neo4j. Every node carries the
// save it came from, so several saves can share one database.
type Builder struct {
	driver neo4j.DriverWithContext
}

// NewBuilder creates a new graph builder.
func NewBuilder(driver neo4j.DriverWithContext) *Builder {
	return &Builder{driver: driver}
}

// Connect opens a driver and verifies the server is reachable.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Str("uri", uri).Msg("Connected to Neo4j")
	return driver, nil
}

// EnsureSchema creates constraints and indexes on the Neo4j database.
func (b *Builder) EnsureSchema(ctx context.Context) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (u:Unit) REQUIRE (u.save, u.id) IS UNIQUE",
		"CREATE INDEX IF NOT EXISTS FOR (u:Unit) ON (u.class)",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// Export replaces the stored graph of save with g.
func (b *Builder) Export(ctx context.Context, save string, g savegame.RefGraph) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MATCH (u:Unit {save: $save}) DETACH DELETE u`,
			map[string]any{"save": save}); err != nil {
			return nil, fmt.Errorf("clear graph: %w", err)
		}

		if _, err := tx.Run(ctx, `
			UNWIND $units AS unit
			MERGE (u:Unit {save: $save, id: unit.id})
			SET u.class = unit.class
		`, map[string]any{"save": save, "units": unitParams(g.Units)}); err != nil {
			return nil, fmt.Errorf("upsert units: %w", err)
		}

		if _, err := tx.Run(ctx, `
			UNWIND $refs AS ref
			MATCH (a:Unit {save: $save, id: ref.from})
			MATCH (b:Unit {save: $save, id: ref.to})
			MERGE (a)-[:REFERS {key: ref.key}]->(b)
		`, map[string]any{"save": save, "refs": refParams(g.Refs)}); err != nil {
			return nil, fmt.Errorf("create references: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("export graph %s: %w", save, err)
	}

	log.Info().
		Str("save", save).
		Int("units", len(g.Units)).
		Int("refs", len(g.Refs)).
		Msg("Exported reference graph")
	return nil
}

func unitParams(units []savegame.Unit) []map[string]any {
	out := make([]map[string]any, 0, len(units))
	for _, u := range units {
		out = append(out, map[string]any{"id": u.ID, "class": u.Class})
	}
	return out
}

func refParams(refs []savegame.Ref) []map[string]any {
	out := make([]map[string]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, map[string]any{"from": r.From, "to": r.To, "key": r.Key})
	}
	return out
}

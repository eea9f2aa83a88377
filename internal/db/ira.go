package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/rx340b/internal/normalize"
	"github.com/gyeh/rx340b/internal/risk"
	embedsql "github.com/gyeh/rx340b/internal/sql"
)

// LoadIRARows reads the IRA registry from ref.ira_drugs in file order.
func LoadIRARows(ctx context.Context, pool *pgxpool.Pool) ([]risk.IRARow, error) {
	rows, err := pool.Query(ctx, embedsql.SelectIRADrugs)
	if err != nil {
		return nil, fmt.Errorf("select ira drugs: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (risk.IRARow, error) {
		var r risk.IRARow
		err := row.Scan(&r.DrugName, &r.Year, &r.Description)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan ira drugs: %w", err)
	}
	return out, nil
}

// SaveIRARows replaces the contents of ref.ira_drugs with rows. Names are
// stored normalized; a repeated name keeps its first position and its last
// year and description, matching the in-memory registry.
func SaveIRARows(ctx context.Context, pool *pgxpool.Pool, rows []risk.IRARow) (int64, error) {
	type entry struct {
		name, desc string
		year, pos  int
	}
	var entries []*entry
	byName := make(map[string]*entry, len(rows))
	for i, r := range rows {
		name := normalize.DrugKey(r.DrugName)
		if name == "" {
			return 0, fmt.Errorf("row %d: empty drug name", i+1)
		}
		if e, ok := byName[name]; ok {
			e.year, e.desc = r.Year, r.Description
			continue
		}
		e := &entry{name: name, desc: r.Description, year: r.Year, pos: len(entries)}
		byName[name] = e
		entries = append(entries, e)
	}

	var copied int64
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, embedsql.DeleteIRADrugs); err != nil {
			return fmt.Errorf("clear ira drugs: %w", err)
		}
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"ref", "ira_drugs"},
			[]string{"drug_name", "year", "description", "position"},
			pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
				e := entries[i]
				return []any{e.name, e.year, e.desc, e.pos}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy ira drugs: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

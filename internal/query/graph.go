package query

import "fmt"

// Join attaches entity Alias (stored in Table) to the graph by matching
// Parent against Alias.Column.
type Join struct {
	Alias  string
	Table  string
	Parent Field
	Column string
}

// Graph describes which entities a query reaches and how they connect.
// Joins are ordered: each Parent must belong to the root or an earlier join.
type Graph struct {
	Root  string
	Table string
	Joins []Join
}

func (g Graph) Has(entity string) bool {
	if entity == g.Root {
		return true
	}
	for _, j := range g.Joins {
		if j.Alias == entity {
			return true
		}
	}
	return false
}

// Validate checks join ordering and that every field in e belongs to the graph.
func (g Graph) Validate(e Expr) error {
	seen := map[string]bool{g.Root: true}
	for _, j := range g.Joins {
		if !seen[j.Parent.Entity] {
			return fmt.Errorf("join %s: parent %s is not joined before it", j.Alias, j.Parent.Entity)
		}
		if seen[j.Alias] {
			return fmt.Errorf("join %s: duplicate alias", j.Alias)
		}
		seen[j.Alias] = true
	}
	if e == nil {
		return nil
	}
	for _, f := range Fields(e) {
		if !seen[f.Entity] {
			return fmt.Errorf("field %s: entity not in graph", f)
		}
	}
	return nil
}

type Sort struct {
	Field Field
	Desc  bool
}

// Page limits a result set. A nil *Page means no pagination.
type Page struct {
	Offset int
	Limit  int
}

// Select is a complete read request handed to storage.
type Select struct {
	Where Expr
	Graph Graph
	Sort  *Sort
	Page  *Page
}

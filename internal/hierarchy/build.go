// Package hierarchy links flat category rows into a sorted tree and caches
// the flat list read from the store.
package hierarchy

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
)

// catchAllNames are sorted after every other root.
var catchAllNames = []string{"Autre", "Other"}

func isCatchAll(name string) bool {
	name = strings.TrimSpace(name)
	for _, n := range catchAllNames {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}

// Build links flat categories into a forest. Categories whose parent is
// unknown, and categories caught in a parent cycle, become roots and are
// logged. Roots are sorted by name with the catch-all category last;
// children are sorted by name. The input slice is not modified.
func Build(flat []models.Category, logger logging.Logger) []*models.Category {
	if logger == nil {
		logger = logging.GetLogger()
	}

	byID := make(map[string]*models.Category, len(flat))
	order := make([]string, 0, len(flat))
	for _, c := range flat {
		if _, dup := byID[c.ID]; dup {
			logger.Warn("Duplicate category id ignored",
				logging.Field{Key: logging.FieldCategoryID, Value: c.ID},
				logging.Field{Key: logging.FieldCategory, Value: c.Name})
			continue
		}
		node := c
		node.Children = nil
		byID[c.ID] = &node
		order = append(order, c.ID)
	}

	var roots []*models.Category
	for _, id := range order {
		node := byID[id]
		if node.IsRoot() {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[node.ParentID]
		if !ok || parent == node {
			logger.Warn("Category parent not found, promoting to root",
				logging.Field{Key: logging.FieldCategoryID, Value: node.ID},
				logging.Field{Key: logging.FieldCategory, Value: node.Name},
				logging.Field{Key: "parent_id", Value: node.ParentID})
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	roots = breakCycles(roots, order, byID, logger)

	col := collate.New(language.French)
	sortTree(roots, col, true)
	return roots
}

// breakCycles promotes nodes unreachable from any root (members of a parent
// cycle) to roots, detaching them from their parent first.
func breakCycles(roots []*models.Category, order []string, byID map[string]*models.Category, logger logging.Logger) []*models.Category {
	visited := make(map[string]bool, len(byID))
	var mark func(n *models.Category)
	mark = func(n *models.Category) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		for _, ch := range n.Children {
			mark(ch)
		}
	}
	for _, r := range roots {
		mark(r)
	}

	for _, id := range order {
		if visited[id] {
			continue
		}
		node := byID[id]
		if parent, ok := byID[node.ParentID]; ok {
			parent.Children = removeChild(parent.Children, node)
		}
		logger.Warn("Category parent cycle detected, promoting to root",
			logging.Field{Key: logging.FieldCategoryID, Value: node.ID},
			logging.Field{Key: logging.FieldCategory, Value: node.Name})
		roots = append(roots, node)
		mark(node)
	}
	return roots
}

func removeChild(children []*models.Category, child *models.Category) []*models.Category {
	out := children[:0]
	for _, c := range children {
		if c != child {
			out = append(out, c)
		}
	}
	return out
}

func sortTree(nodes []*models.Category, col *collate.Collator, roots bool) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if roots {
			ci, cj := isCatchAll(nodes[i].Name), isCatchAll(nodes[j].Name)
			if ci != cj {
				return cj
			}
		}
		return col.CompareString(nodes[i].Name, nodes[j].Name) < 0
	})
	for _, n := range nodes {
		sortTree(n.Children, col, false)
	}
}

// Flatten returns the tree in depth-first display order with each node's depth.
func Flatten(roots []*models.Category) []Entry {
	var out []Entry
	var walk func(nodes []*models.Category, depth int)
	walk = func(nodes []*models.Category, depth int) {
		for _, n := range nodes {
			out = append(out, Entry{Category: n, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	return out
}

// Entry is one line of a flattened tree.
type Entry struct {
	Category *models.Category
	Depth    int
}

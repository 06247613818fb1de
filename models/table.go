// models/table.go
package models

import (
	"fmt"
	"strings"
)

// DumpFormat is the encoding of a published table dump.
type DumpFormat string

// FormatGzipSQL is a gzip-compressed SQL script that drops and recreates its table.
const FormatGzipSQL DumpFormat = "sql.gz"

// DefaultDataset and DefaultTables describe the only dataset family we refresh.
const DefaultDataset = "simplewiki"

var DefaultTables = []string{"page", "pagelinks", "category", "categorylinks"}

// TableDescriptor identifies one refreshable table and the dump that feeds it.
type TableDescriptor struct {
	Name     string     `json:"name"`      // e.g., "pagelinks"
	FileName string     `json:"file_name"` // e.g., "simplewiki-latest-pagelinks.sql.gz"
	Format   DumpFormat `json:"format"`
}

// DumpFileName builds "{dataset}-latest-{table}.sql.gz".
func DumpFileName(dataset, table string) string {
	return fmt.Sprintf("%s-latest-%s.%s", dataset, table, FormatGzipSQL)
}

// Catalog is the fixed, ordered set of tables known at process start.
type Catalog struct {
	dataset string
	tables  []TableDescriptor
	byName  map[string]int
}

// NewCatalog builds a catalog for dataset. Table order is preserved and is the
// order in which stale tables are downloaded and applied.
func NewCatalog(dataset string, tables []string) (*Catalog, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return nil, fmt.Errorf("dataset name is empty")
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables configured for dataset %s", dataset)
	}

	c := &Catalog{dataset: dataset, byName: make(map[string]int, len(tables))}
	for _, name := range tables {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty table name in catalog for %s", dataset)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("table %q listed twice", name)
		}
		c.byName[name] = len(c.tables)
		c.tables = append(c.tables, TableDescriptor{
			Name:     name,
			FileName: DumpFileName(dataset, name),
			Format:   FormatGzipSQL,
		})
	}
	return c, nil
}

// MustDefaultCatalog returns the simplewiki catalog. It panics only if the
// built-in table list is broken.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDataset, DefaultTables)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Dataset() string { return c.dataset }

// Tables returns a copy of the descriptors in catalog order.
func (c *Catalog) Tables() []TableDescriptor {
	out := make([]TableDescriptor, len(c.tables))
	copy(out, c.tables)
	return out
}

// Names returns table names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.tables))
	for i, t := range c.tables {
		out[i] = t.Name
	}
	return out
}

// Lookup finds a descriptor by table name.
func (c *Catalog) Lookup(name string) (TableDescriptor, bool) {
	i, ok := c.byName[name]
	if !ok {
		return TableDescriptor{}, false
	}
	return c.tables[i], true
}

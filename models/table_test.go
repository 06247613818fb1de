package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_DefaultTables(t *testing.T) {
	c := MustDefaultCatalog()

	assert.Equal(t, "simplewiki", c.Dataset())
	assert.Equal(t, []string{"page", "pagelinks", "category", "categorylinks"}, c.Names())

	td, ok := c.Lookup("pagelinks")
	require.True(t, ok)
	assert.Equal(t, "simplewiki-latest-pagelinks.sql.gz", td.FileName)
	assert.Equal(t, FormatGzipSQL, td.Format)

	_, ok = c.Lookup("revision")
	assert.False(t, ok)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog("", []string{"page"})
	assert.Error(t, err)

	_, err = NewCatalog("simplewiki", nil)
	assert.Error(t, err)

	_, err = NewCatalog("simplewiki", []string{"page", "page"})
	assert.Error(t, err)

	_, err = NewCatalog("simplewiki", []string{"page", " "})
	assert.Error(t, err)
}

func TestCatalog_TablesIsACopy(t *testing.T) {
	c := MustDefaultCatalog()
	tables := c.Tables()
	tables[0].Name = "mutated"

	assert.Equal(t, "page", c.Tables()[0].Name)
}

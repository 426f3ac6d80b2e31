package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/db"
)

func TestGenerateOwnerGraph(t *testing.T) {
	database, err := db.OpenSeeded(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	dot, err := NewGraphGenerator(database).GenerateOwnerGraph()
	require.NoError(t, err)

	assert.Contains(t, dot, "graph")
	assert.Contains(t, dot, "Emily Davis")
	assert.Contains(t, dot, "Unassigned")
	assert.Contains(t, dot, "lightgreen")
}

func TestGenerateCompanyGraph(t *testing.T) {
	database, err := db.OpenSeeded(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	dot, err := NewGraphGenerator(database).GenerateCompanyGraph()
	require.NoError(t, err)

	assert.Contains(t, dot, "Acme Corp")
	assert.Contains(t, dot, "works at")
}

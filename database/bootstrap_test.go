package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

func TestOpenMemory_CreatesTables(t *testing.T) {
	db, err := OpenMemory(t.Name(), nil)
	require.NoError(t, err)

	for _, table := range []string{"knowledge_entries", "documents", "entry_chunks", "tender_analyses",
		"studio_drafts", "studio_draft_versions", "project_method_links", "offer_project_links", "method_person_links"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMigrate_RebuildsLegacyLinkTable(t *testing.T) {
	db, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE project_method_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER,
		method_id INTEGER,
		created_at DATETIME
	)`).Error)
	require.NoError(t, db.Exec(`CREATE INDEX idx_project_method_links_method_id ON project_method_links(method_id)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO project_method_links (project_id, method_id, created_at) VALUES
		(1, 2, '2024-01-01 00:00:00'), (1, 2, '2024-02-01 00:00:00'), (1, 3, '2024-01-05 00:00:00')`).Error)

	require.NoError(t, Migrate(db, nil))

	var rows []entities.ProjectMethodLink
	require.NoError(t, db.Order("method_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].MethodID)
	assert.Equal(t, uint(3), rows[1].MethodID)

	// composite key now rejects duplicates
	err = db.Create(&entities.ProjectMethodLink{ProjectID: 1, MethodID: 2}).Error
	assert.Error(t, err)

	// second run is a no-op
	require.NoError(t, Migrate(db, nil))
	assert.False(t, db.Migrator().HasTable("project_method_links_legacy"))
}

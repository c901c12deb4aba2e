package entities

import (
	"path/filepath"
	"testing"

	"github.com/reglet-dev/autoslice/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_SortsAndDedupes(t *testing.T) {
	t.Parallel()
	catalog := NewCatalog([]string{"mk4", "mk3", "mk4"}, nil, []string{"draft"})

	assert.Equal(t, []string{"mk3", "mk4"}, catalog.Printers)
	assert.Equal(t, []string{}, catalog.Filaments)
	assert.Equal(t, []string{values.None}, catalog.Axis(values.CategoryFilament))
	assert.Equal(t, []string{"draft"}, catalog.Axis(values.CategoryPrintSetting))
	assert.True(t, catalog.Contains(values.ProfileRef{Category: values.CategoryPrinter, Name: "mk3"}))
	assert.False(t, catalog.Contains(values.ProfileRef{Category: values.CategoryFilament, Name: "mk3"}))
	assert.False(t, catalog.IsEmpty())
	assert.True(t, NewCatalog(nil, nil, nil).IsEmpty())
}

func TestNewProject(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	project, err := NewProject(root, filepath.Join(root, "parts", "box.3mf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("parts", "box.3mf"), project.RelPath)
	assert.Equal(t, "box", project.Name())
	assert.Equal(t, "parts", project.Dir())

	_, err = NewProject(root, filepath.Join(filepath.Dir(root), "other.3mf"))
	assert.Error(t, err)

	_, err = NewProject(root, root)
	assert.Error(t, err)
}

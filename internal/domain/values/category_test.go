package values

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfilePath(t *testing.T) {
	t.Parallel()
	root := filepath.Join("/home", "user", "PrusaSlicer")

	tests := []struct {
		name    string
		path    string
		want    ProfileRef
		wantErr bool
	}{
		{"printer", filepath.Join(root, "printer", "mk3.ini"), ProfileRef{CategoryPrinter, "mk3"}, false},
		{"filament", filepath.Join(root, "filament", "Prusament PLA.ini"), ProfileRef{CategoryFilament, "Prusament PLA"}, false},
		{"print setting", filepath.Join(root, "print", "0.20mm draft.ini"), ProfileRef{CategoryPrintSetting, "0.20mm draft"}, false},
		{"unknown category", filepath.Join(root, "vendor", "x.ini"), ProfileRef{}, true},
		{"nested", filepath.Join(root, "printer", "old", "x.ini"), ProfileRef{}, true},
		{"wrong extension", filepath.Join(root, "printer", "x.bak"), ProfileRef{}, true},
		{"outside root", filepath.Join("/tmp", "printer", "x.ini"), ProfileRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProfilePath(root, tt.path, ".ini")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProfileRef_RejectsNone(t *testing.T) {
	t.Parallel()
	_, err := NewProfileRef(CategoryPrinter, None)
	assert.Error(t, err)

	_, err = NewProfileRef(CategoryPrinter, "  ")
	assert.Error(t, err)
}

func TestPermutation(t *testing.T) {
	t.Parallel()

	vanilla := Vanilla()
	assert.True(t, vanilla.IsVanilla())
	assert.Equal(t, "vanilla", vanilla.String())
	assert.Empty(t, vanilla.Profiles())

	perm := NewPermutation("mk3", "", "draft")
	assert.False(t, perm.IsVanilla())
	assert.Equal(t, "mk3-none-draft", perm.Tag())
	assert.True(t, perm.References(ProfileRef{CategoryPrinter, "mk3"}))
	assert.False(t, perm.References(ProfileRef{CategoryFilament, "mk3"}))
	assert.False(t, perm.References(ProfileRef{CategoryFilament, None}))
	assert.Equal(t, []ProfileRef{
		{CategoryPrinter, "mk3"},
		{CategoryPrintSetting, "draft"},
	}, perm.Profiles())
}

func TestPassID_TextRoundTrip(t *testing.T) {
	t.Parallel()
	id := NewPassID()
	assert.False(t, id.IsZero())

	text, err := id.MarshalText()
	require.NoError(t, err)

	var parsed PassID
	require.NoError(t, parsed.UnmarshalText(text))
	assert.True(t, id.Equals(parsed))

	_, err = ParsePassID("not-a-uuid")
	assert.Error(t, err)
}

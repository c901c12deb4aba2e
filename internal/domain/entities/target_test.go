package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Target
		wantErr bool
	}{
		{
			name: "plain address",
			raw:  "pi@printer.local:/home/pi/.octoprint/watched",
			want: Target{Address: "pi@printer.local:/home/pi/.octoprint/watched"},
		},
		{
			name: "allow-list",
			raw:  "pi@10.10.10.10:/watched[mk3, mk3s]",
			want: Target{Address: "pi@10.10.10.10:/watched", AllowedPrinters: []string{"mk3", "mk3s"}},
		},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "empty list", raw: "host:/x[]", wantErr: true},
		{name: "unterminated", raw: "host:/x[mk3", wantErr: true},
		{name: "list only", raw: "[mk3]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTarget_Allows(t *testing.T) {
	t.Parallel()

	open := Target{Address: "a"}
	assert.False(t, open.Restricted())
	assert.True(t, open.Allows("anything"))

	restricted := Target{Address: "b", AllowedPrinters: []string{"mk4"}}
	assert.True(t, restricted.Restricted())
	assert.True(t, restricted.Allows("mk4"))
	assert.False(t, restricted.Allows("mk3"))
	assert.Equal(t, "b[mk4]", restricted.String())
}

func TestParseTargets_FailsOnInvalid(t *testing.T) {
	t.Parallel()
	_, err := ParseTargets([]string{"ok:/x", "bad[]"})
	assert.Error(t, err)

	targets, err := ParseTargets([]string{"a:/x", "b:/y[mk3]"})
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestTarget_Destination(t *testing.T) {
	t.Parallel()
	tests := []struct {
		address string
		rel     string
		want    string
	}{
		{"pi@host:/home/pi/watched", "box.gcode", "pi@host:/home/pi/watched/box.gcode"},
		{"pi@host:/home/pi/watched/", "parts/lid.gcode", "pi@host:/home/pi/watched/parts/lid.gcode"},
		{"/mnt/share//", "box.gcode", "/mnt/share/box.gcode"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			target := Target{Address: tt.address}
			assert.Equal(t, tt.want, target.Destination(tt.rel))
		})
	}
}

package cli

import (
	"testing"

	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicle(t *testing.T) {
	v, err := parseVehicle("truck")
	require.NoError(t, err)
	assert.Equal(t, session.Truck, v)

	v, err = parseVehicle("trailer")
	require.NoError(t, err)
	assert.Equal(t, session.Trailer, v)

	_, err = parseVehicle("bus")
	assert.Error(t, err)
}

func TestParseNumbers(t *testing.T) {
	f, err := parseFloat("0.25")
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), f)

	_, err = parseFloat("half")
	assert.Error(t, err)

	n, err := parseInt("-12")
	require.NoError(t, err)
	assert.EqualValues(t, -12, n)

	_, err = parseInt("1.5")
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "50%", percent(0.5))
	assert.Equal(t, "12.5%", percent(0.125))
	assert.Equal(t, "0%", percent(0))
}

func TestCommandTree(t *testing.T) {
	cfg := configCmd()
	names := map[string]bool{}
	for _, c := range cfg.Commands() {
		names[c.Name()] = true
	}
	assert.Equal(t, map[string]bool{"list": true, "get": true, "set": true}, names)
	assert.Equal(t, "plate", plateCmd().Name())
}

func TestDescribeChange(t *testing.T) {
	ch := editor.Change{
		Edit: editor.Edit{Class: "vehicle", ID: "_nameless.v1", Key: "odometer"},
		Old:  "100",
		New:  "250",
		Line: 4,
	}
	assert.Equal(t, "vehicle : _nameless.v1  odometer: 100 -> 250  (line 4)", describeChange(ch))

	ch.Line = 0
	assert.Equal(t, "vehicle : _nameless.v1  odometer: 100 -> 250", describeChange(ch))
}

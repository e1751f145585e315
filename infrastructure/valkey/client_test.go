package valkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyJoinsPartsUnderPrefix(t *testing.T) {
	c := &Client{prefix: normalizePrefix("wacrm")}

	assert.Equal(t, "wacrm:ws_broadcast", c.Key("ws_broadcast"))
	assert.Equal(t, "wacrm:ws:broadcast", c.Key("ws", "broadcast"))
	assert.Equal(t, "wacrm", c.Key())
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "wacrm:", normalizePrefix("wacrm"))
	assert.Equal(t, "wacrm:", normalizePrefix("wacrm:"))
	assert.Equal(t, "", normalizePrefix(""))
}

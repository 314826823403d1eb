package printers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowProposal(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinters(&out)

	p.ShowProposal("a := 1\nb := 2", "a, b := 1, 2")

	got := out.String()
	assert.Contains(t, got, "  - a := 1")
	assert.Contains(t, got, "  - b := 2")
	assert.Contains(t, got, "  + a, b := 1, 2")
}

func TestShowDiscussion(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinters(&out)

	p.ShowDiscussion("main.go", 12, "darker", "please **rename** this")

	got := out.String()
	assert.Contains(t, got, "main.go:12")
	assert.Contains(t, got, "@darker")
	assert.Contains(t, got, "rename")
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndexBasics(t *testing.T) {
	src := "line one\r\nline two\n\nline four"
	idx := NewLineIndex([]byte(src))

	require := assert.New(t)
	require.Equal(4, idx.LineCount())
	require.Equal("line one", idx.Trimmed(1))
	require.Equal("line two", idx.Trimmed(2))
	require.Equal("", idx.Trimmed(3))
	require.Equal("line four", idx.Trimmed(4))
}

func TestLineIndexIsSkippable(t *testing.T) {
	src := "// comment\n# hash comment\n/* block */\n* mid-block\n<?php tag\ncode();\n"
	idx := NewLineIndex([]byte(src))

	for n := 1; n <= 5; n++ {
		assert.True(t, idx.IsSkippable(n), "line %d should be skippable", n)
	}
	assert.False(t, idx.IsSkippable(6))
}

func TestLineIndexOutOfRange(t *testing.T) {
	idx := NewLineIndex([]byte("only line"))
	assert.Equal(t, "", idx.Text(0))
	assert.Equal(t, "", idx.Text(2))
}

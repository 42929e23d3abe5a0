package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"mobydick.txt", "mobydick"},
		{"Pride and Prejudice", "prideandprejudice"},
		{"pride-and-prejudice.txt", "prideandprejudice"},
		{"  Frankenstein.TXT  ", "frankenstein"},
		{"The Whale (1851).txt", "thewhale1851"},
		{"notes.md", "notes"},
		{"", ""},
		{"...", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeKey(c.in), "input %q", c.in)
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{
		"mobydick.txt",
		"Pride and Prejudice",
		"pride & prejudice",
		"The Whale (1851).txt",
		"frankenstein",
		"a.b.c.txt",
		"file.txt.txt",
		"",
	}

	for _, in := range inputs {
		once := NormalizeKey(in)
		assert.Equal(t, once, NormalizeKey(once), "input %q", in)
	}
}

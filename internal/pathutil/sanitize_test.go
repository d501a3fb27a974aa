package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"report.pdf":                 "report.pdf",
		"My cool movie.mov":          "My_cool_movie.mov",
		"../../etc/passwd":           "etc_passwd",
		`..\..\windows\x.ini`:        "windows_x.ini",
		"i contain cool ümläuts.txt": "i_contain_cool_umlauts.txt",
		".hidden":                    "hidden",
		"...":                        "",
		"a;rm -rf *.sh":              "arm_-rf_.sh",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), "SanitizeName(%q)", in)
	}
}

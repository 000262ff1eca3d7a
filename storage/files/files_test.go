package files

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "pdf", in: "homework.pdf"},
		{name: "uppercase ext", in: "homework.PDF"},
		{name: "spaces in base", in: "my homework.docx"},
		{name: "no ext", in: "homework", wantErr: ErrInvalidFileType},
		{name: "executable", in: "homework.exe", wantErr: ErrInvalidFileType},
		{name: "script", in: "homework.sh", wantErr: ErrInvalidFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := UniqueName(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.ContainsRune(ref, ' '))
			assert.True(t, strings.HasSuffix(strings.ToLower(ref), strings.ToLower(tt.in[strings.LastIndex(tt.in, "."):])))
		})
	}

	t.Run("collision free", func(t *testing.T) {
		ref1, err := UniqueName("homework.pdf")
		require.NoError(t, err)
		ref2, err := UniqueName("homework.pdf")
		require.NoError(t, err)
		assert.NotEqual(t, ref1, ref2)
	})
}

func TestCopyLimited(t *testing.T) {
	t.Run("under cap", func(t *testing.T) {
		var w bytes.Buffer
		require.NoError(t, CopyLimited(&w, strings.NewReader("hello")))
		assert.Equal(t, "hello", w.String())
	})

	t.Run("over cap", func(t *testing.T) {
		var w bytes.Buffer
		r := bytes.NewReader(make([]byte, MaxSize+1))
		assert.ErrorIs(t, CopyLimited(&w, r), ErrFileTooLarge)
	})
}

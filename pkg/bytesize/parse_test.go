package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "bare integer", input: "4096", want: 4096},
		{name: "bytes", input: "512B", want: 512},
		{name: "kilobytes", input: "64KB", want: 64 * KiB},
		{name: "short suffix", input: "1m", want: MiB},
		{name: "binary suffix", input: "2MiB", want: 2 * MiB},
		{name: "fraction", input: "1.5MB", want: MiB + MiB/2},
		{name: "spaces and case", input: " 1 gb ", want: GiB},
		{name: "empty", input: "", wantErr: true},
		{name: "missing value", input: "MB", wantErr: true},
		{name: "garbage value", input: "abcMB", wantErr: true},
		{name: "negative integer", input: "-1", wantErr: true},
		{name: "negative with unit", input: "-1KB", wantErr: true},
		{name: "unknown unit", input: "12XB", wantErr: true},
		{name: "overflow", input: "99999999999GB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1MiB", Format(MiB))
	assert.Equal(t, "3GiB", Format(3*GiB))
	assert.Equal(t, "1536KiB", Format(MiB+MiB/2))
	assert.Equal(t, "100B", Format(100))
}

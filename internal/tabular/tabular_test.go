package tabular

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/ardoise/internal/filetest"
	"github.com/stretchr/testify/require"
)

var testUpdateTabularTests = flag.Bool("test.update-tabular-tests", false, "If set, updates the golden files of the tabular tests.")

func TestFormat(t *testing.T) {
	got := Format(
		[]string{"url", "loadtime"},
		[][]string{
			{`"/"`, "500"},
			{`"/about"`, "1500"},
		},
	)
	filetest.DiffGolden(t, "table", filepath.Join("testdata", "result.want"), got, testUpdateTabularTests)
}

func TestFormatNoRows(t *testing.T) {
	got := Format([]string{"count_0"}, nil)
	require.Equal(t, "count_0\n-------\n", got)
}

func TestFormatRuntime(t *testing.T) {
	cases := []struct {
		ns   uint64
		want string
	}{
		{0, "0ns"},
		{9_999, "9999ns"},
		{10_000, "10μs"},
		{9_999_999, "9999μs"},
		{10_000_000, "10ms"},
		{9_999_999_999, "9999ms"},
		{10_000_000_000, "10s"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatRuntime(c.ns))
	}
}

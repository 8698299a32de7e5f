package all

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// Sample documents in testdata decode to the canonical JSON held in
// testdata/golden. Regenerate with: go test ./internal/format/all -update
func TestSampleDocumentsGolden(t *testing.T) {
	for _, name := range []string{"measurement"} {
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("testdata", name+".xml"))
			require.NoError(t, err)
			n, err := xmltree.Parse(data)
			require.NoError(t, err)

			v, err := decode.Default().Decode(n)
			require.NoError(t, err)
			out, err := ir.MarshalCanonical(v)
			require.NoError(t, err)

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, name, out)
		})
	}
}

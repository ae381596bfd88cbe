package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/store"
	"github.com/crimson-sun/orgtree/internal/tree"
)

func TestEncode(t *testing.T) {
	s := store.FromRecords([]model.CustomerRecord{
		{ID: "R", Name: "root", Depth: 1, Children: []string{"C1"}},
		{ID: "C1", Name: "에스케이 <B&C>", ParentID: "R", Depth: 2, Children: []string{"C2"}},
		{ID: "C2", Name: "leaf", ParentID: "C1", Depth: 3},
	})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tree.Build(s)))

	want := `{
  "C1": {
    "name": "에스케이 <B&C>",
    "children": [
      {
        "customer_id": "C2",
        "name": "leaf",
        "children": []
      }
    ]
  }
}
`
	assert.Equal(t, want, buf.String())
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tree.Build(store.New())))
	assert.Equal(t, "{}\n", buf.String())
}

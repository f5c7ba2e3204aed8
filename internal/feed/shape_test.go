package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_Shapes(t *testing.T) {
	cases := []struct {
		body  string
		want  shape
		count int
	}{
		{`<rss><channel><item><title>a</title></item></channel></rss>`, shapeRSS, 1},
		{`<rss><channel></channel></rss>`, shapeRSS, 0},
		{`<feed><entry><title>a</title></entry><entry><title>b</title></entry></feed>`, shapeAtom, 2},
		{`<feed><title>empty</title><link href="a"/><link href="b"/></feed>`, shapeAtom, 0},
		{`<item><title>a</title></item>`, shapeBareItem, 1},
		{`<items><item><title>a</title></item></items>`, shapeBareItems, 1},
		{`<root><wrap><x>1</x><x>2</x><x>3</x></wrap></root>`, shapeFirstArray, 3},
		{`<root><single>1</single></root>`, shapeNone, 0},
	}
	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			tree, err := parseTree(strings.NewReader(tc.body))
			require.NoError(t, err)
			got, entries := detect(tree)
			assert.Equal(t, tc.want, got)
			assert.Len(t, entries, tc.count)
		})
	}
}

func TestScalar_Unwrapping(t *testing.T) {
	tree, err := parseTree(strings.NewReader(
		`<r><a kind="x">text</a><b><name>Globex</name></b><c><inner><deep>v</deep></inner></c><d one="1" two="2"/><e kind="x"/><f rel="self"><name>n</name></f></r>`))
	require.NoError(t, err)
	r, ok := tree.get("r")
	require.True(t, ok)
	obj := r.(*object)

	for key, want := range map[string]string{"a": "text", "b": "Globex", "c": "v", "d": "", "e": "", "f": "n"} {
		v, _ := obj.get(key)
		assert.Equal(t, want, scalar(v), key)
	}
}

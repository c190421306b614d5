package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansAttachToParent(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "GET /", "req-1")

	childCtx, child := StartChildSpan(ctx, "cms.find")
	child.SetAttr("type", "posts")
	child.End()

	_, grandchild := StartChildSpan(childCtx, "decode")
	grandchild.End()
	root.End()

	children := root.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "cms.find", children[0].Name)
	assert.Equal(t, "req-1", children[0].TraceID)
	v, ok := children[0].Attr("type")
	assert.True(t, ok)
	assert.Equal(t, "posts", v)
	assert.Len(t, children[0].Children(), 1)
}

func TestChildSpanWithoutParentIsDetached(t *testing.T) {
	ctx := context.Background()
	got, span := StartChildSpan(ctx, "orphan")
	assert.Equal(t, ctx, got)
	assert.Nil(t, SpanFromContext(got))
	span.End()
}

package markup_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/mazraa/pkg/markup"
)

func TestRenderMarkdown(t *testing.T) {
	out := markup.RenderMarkdown("**Huile d'olive** extra vierge")
	assert.Contains(t, out, "<strong>Huile d")
	assert.Contains(t, out, "extra vierge")
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := markup.RenderMarkdown("hello <script>alert(1)</script>")
	assert.NotContains(t, out, "<script")
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, "", markup.RenderMarkdown("   "))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Bonjour", markup.PlainText("  <b>Bonjour</b> "))
	assert.Equal(t, "fruits & légumes", markup.PlainText("fruits & légumes"))
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", markup.Preview(long, 50))
	assert.Equal(t, "court", markup.Preview("court", 50))
}

package archive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToMarkdown(t *testing.T) {
	src := `<!DOCTYPE html>
<html>
<head><title>Spring Sale</title><style>p { color: red; }</style></head>
<body>
  <span class="mcnPreviewText" style="display:none">Hidden preheader</span>
  <table><tr><td>
    <h2>Spring   Sale</h2>
    <p>Everything is <strong>half</strong> price.<br>Today only.</p>
    <ul><li>Shoes</li><li>Hats</li></ul>
    <p><a href="https://example.com/shop">Shop now</a> or <a href="*|UNSUB|*">unsubscribe</a></p>
    <img src="https://example.com/banner.png" alt="Banner">
  </td></tr></table>
  <script>track()</script>
</body>
</html>`

	md, err := HTMLToMarkdown(src)
	require.NoError(t, err)

	assert.Contains(t, md, "## Spring Sale")
	assert.Contains(t, md, "Everything is **half** price.  \nToday only.")
	assert.Contains(t, md, "- Shoes")
	assert.Contains(t, md, "- Hats")
	assert.Contains(t, md, "[Shop now](https://example.com/shop)")
	assert.Contains(t, md, "or unsubscribe")
	assert.Contains(t, md, "![Banner](https://example.com/banner.png)")
	assert.NotContains(t, md, "Hidden preheader")
	assert.NotContains(t, md, "track()")
	assert.NotContains(t, md, "color: red")
	assert.NotContains(t, md, "\n\n\n")
}

func TestHTMLToMarkdown_Empty(t *testing.T) {
	md, err := HTMLToMarkdown("   ")
	require.NoError(t, err)
	assert.Empty(t, md)
}

func TestHTMLToMarkdown_Fragment(t *testing.T) {
	md, err := HTMLToMarkdown("plain <em>words</em>")
	require.NoError(t, err)
	assert.Equal(t, "plain *words*", md)
}

func TestHTMLToMarkdown_DeeplyNestedLayout(t *testing.T) {
	for _, n := range []int{16, 40, 200} {
		src := strings.Repeat("<table><tr><td>", n) + "<p>Hello <strong>reader</strong></p>" + strings.Repeat("</td></tr></table>", n)

		md, err := HTMLToMarkdown(src)
		require.NoError(t, err)
		assert.Contains(t, md, "Hello", "nesting %d", n)
		assert.Contains(t, md, "reader", "nesting %d", n)
	}
}

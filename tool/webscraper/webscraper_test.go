package webscraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `
<html>
<head>
  <title>Pad Thai Recipe</title>
  <meta name="description" content="An authentic pad thai recipe.">
  <meta name="author" content="A Cook">
  <meta property="og:site_name" content="Cooking Site">
</head>
<body>
  <nav>Home | Recipes</nav>
  <article><h1>Pad Thai</h1><p>Soak the noodles.</p></article>
  <footer>Copyright</footer>
</body>
</html>`

func TestMainContentPrefersArticle(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	content := mainContent(doc)
	assert.Contains(t, content, "Pad Thai")
	assert.Contains(t, content, "Soak the noodles.")
	assert.NotContains(t, content, "Home | Recipes")
	assert.NotContains(t, content, "Copyright")
}

func TestExtractMetadata(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)

	meta := extractMetadata(doc)
	assert.Equal(t, "Pad Thai Recipe", meta.Title)
	assert.Equal(t, "An authentic pad thai recipe.", meta.Description)
	assert.Equal(t, "A Cook", meta.Author)
	assert.Equal(t, "Cooking Site", meta.SiteName)
}

func TestCleanMarkdown(t *testing.T) {
	in := "# Title   \n\n\n\nSome text\t\n\n\nMore"
	out := CleanMarkdown(in)
	assert.Equal(t, "# Title\n\nSome text\n\nMore\n", out)
}

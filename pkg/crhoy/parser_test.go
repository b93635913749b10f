package crhoy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const regularArticleHTML = `<html><body>
<section class="main-content">
<h1 class="titulo">Gobierno anuncia nuevas medidas</h1>
<div id="contenido">
  <div>
    <p>Primer parrafo de la nota con <strong>enfasis</strong>.</p>
    <div class="banner-d">PUBLICIDAD</div>
    <p>Segundo parrafo.</p>
    <div class="moreBox"><a href="/otra-nota">Lea tambien</a></div>
    <script>trackPageView()</script>
  </div>
  <div class="comentarios-container">comentarios</div>
</div>
</section>
</body></html>`

const opinionArticleHTML = `<html><body>
<section class="main-content opinion">
<article class="articulo-opinion">
  <h1>Una columna de opinion</h1>
  <div class="contenido"><p>Texto de la columna.</p></div>
</article>
</section>
</body></html>`

func TestParseArticleRegular(t *testing.T) {
	title, md, err := ParseArticle([]byte(regularArticleHTML))
	require.NoError(t, err)

	assert.Equal(t, "Gobierno anuncia nuevas medidas", title)
	assert.Contains(t, md, "Primer parrafo")
	assert.Contains(t, md, "**enfasis**")
	assert.Contains(t, md, "Segundo parrafo")
	assert.NotContains(t, md, "PUBLICIDAD")
	assert.NotContains(t, md, "Lea tambien")
	assert.NotContains(t, md, "trackPageView")
	assert.NotContains(t, md, "comentarios")
}

func TestParseArticleOpinion(t *testing.T) {
	title, md, err := ParseArticle([]byte(opinionArticleHTML))
	require.NoError(t, err)

	assert.Equal(t, "Una columna de opinion", title)
	assert.Contains(t, md, "Texto de la columna")
}

func TestParseArticleMissingContent(t *testing.T) {
	for name, page := range map[string]string{
		"empty page": `<html><body></body></html>`,
		"title only": `<html><body><h1 class="titulo">Solo titular</h1></body></html>`,
		"body only":  `<html><body><div id="contenido"><div><p>texto</p></div></div></body></html>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseArticle([]byte(page))
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

package discovery

import (
	"testing"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"github.com/ThiagoRGoveia/ans-operadoras/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `
<html><body>
	<a href="https://www.gov.br/ans/Anexo_I_Rol_2021RN_465.2021_RN627L.2024.pdf">Anexo I</a>
	<a href="https://www.gov.br/ans/Anexo_II_DUT_2021_RN_465.2021.pdf">Anexo <b>II</b></a>
	<a href="https://www.gov.br/ans/Anexo_III.xlsx">Anexo III</a>
	<a class="internal-link pdf-link" href="docs/nota.pdf">Nota técnica</a>
	<a class="other" href="docs/outra.pdf">Outra</a>
	<a href="https://www.gov.br/ans/Anexo_I_Rol_2021RN_465.2021_RN627L.2024.pdf">anexo I (repetido)</a>
	<a>sem href</a>
</body></html>`

func TestFindLinks(t *testing.T) {
	log := logger.Discard()

	t.Run("Expect: label filter with suffix keeps document order and duplicates", func(t *testing.T) {
		links, err := FindLinks(log, listingPage, Filter{Label: "Anexo", Suffix: ".pdf"})

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://www.gov.br/ans/Anexo_I_Rol_2021RN_465.2021_RN627L.2024.pdf",
			"https://www.gov.br/ans/Anexo_II_DUT_2021_RN_465.2021.pdf",
			"https://www.gov.br/ans/Anexo_I_Rol_2021RN_465.2021_RN627L.2024.pdf",
		}, links)
	})

	t.Run("Expect: class filter matches a single class token", func(t *testing.T) {
		links, err := FindLinks(log, listingPage, Filter{Class: "pdf-link"})

		require.NoError(t, err)
		assert.Equal(t, []string{"docs/nota.pdf"}, links)
	})

	t.Run("Expect: no label or class returns every anchor with href", func(t *testing.T) {
		links, err := FindLinks(log, listingPage, Filter{Suffix: ".xlsx"})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.gov.br/ans/Anexo_III.xlsx"}, links)
	})

	t.Run("Expect: suffix is case sensitive", func(t *testing.T) {
		links, err := FindLinks(log, listingPage, Filter{Label: "Anexo", Suffix: ".PDF"})

		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("Expect: zero matches returns an empty list", func(t *testing.T) {
		links, err := FindLinks(log, "<html><body><p>nothing here</p></body></html>", Filter{Label: "Anexo"})

		require.NoError(t, err)
		assert.NotNil(t, links)
		assert.Empty(t, links)
	})

	t.Run("Expect: malformed page is not an error", func(t *testing.T) {
		links, err := FindLinks(log, "<a href='x.pdf'<<</div>>", Filter{Class: "pdf"})

		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("Expect: both label and class is a filter conflict", func(t *testing.T) {
		links, err := FindLinks(log, listingPage, Filter{Label: "Anexo", Class: "pdf-link"})

		assert.Nil(t, links)
		assert.ErrorIs(t, err, models.ErrFilterConflict)
		assert.Equal(t, models.KindFilterConflict, models.KindOf(err))
	})

	t.Run("Expect: invalid pattern is reported", func(t *testing.T) {
		_, err := FindLinks(log, listingPage, Filter{Label: "Anexo("})

		assert.ErrorIs(t, err, models.ErrInvalidFilter)
	})
}

func TestResolve(t *testing.T) {
	resolved := Resolve("https://dadosabertos.ans.gov.br/FTP/PDA/demonstracoes_contabeis/2024/", []string{
		"1T2024.zip",
		"https://other.host/2T2024.zip",
		"../2023/4T2023.zip",
	})

	assert.Equal(t, []string{
		"https://dadosabertos.ans.gov.br/FTP/PDA/demonstracoes_contabeis/2024/1T2024.zip",
		"https://other.host/2T2024.zip",
		"https://dadosabertos.ans.gov.br/FTP/PDA/demonstracoes_contabeis/2023/4T2023.zip",
	}, resolved)
}

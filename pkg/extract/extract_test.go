package extract_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-pypi-inspector/pkg/extract"
	"github.com/shouni/go-pypi-inspector/pkg/types"
)

// ======================================================================
// モック (Mock) とフィクスチャの定義
// ======================================================================

// MockFetcher はテスト用の extract.Fetcher インターフェースの実装です。
type MockFetcher struct {
	htmlContent string
	fetchError  error
	calledURL   string
}

// FetchText はモックされたHTMLを返すか、エラーを返します。
func (m *MockFetcher) FetchText(ctx context.Context, url string) (string, error) {
	m.calledURL = url
	if m.fetchError != nil {
		return "", m.fetchError
	}
	return m.htmlContent, nil
}

// liburlparserPage は inspector の実際のページ構造を模したフィクスチャです。
const liburlparserPage = `<html><body>
    <main>
      <h1><a href="/">Inspector</a></h1>
      <form action="/">
          <input type="text" name="project" placeholder="Project name" value="liburlparser" autocomplete="off">
        <input type="submit">
      </form><p>Retrieved 20 versions.</p>

<table>
<colgroup>
  <col style="width: 160px">
  <col style="width: 160px">
  <col style="width: 160px">
</colgroup>
<thead>
<tr>
  <th>Version</th>
  <th>Upload Timestamp</th>
  <th>Artifacts</th>
</tr>
</thead>
  <tr>
    <td><a href="./1.6.0">1.6.0</a></td>
    <td>2025-05-04T13:21:22</td>
    <td>10</td>
  </tr>
  <tr>
    <td><a href="./1.5.0">1.5.0</a></td>
    <td>2024-10-18T18:22:29</td>
    <td>31</td>
  </tr>
</table>
    </main>
  </body>
</html>`

func tableWithRows(rows string) string {
	return fmt.Sprintf(`<html><body><table>%s</table></body></html>`, rows)
}

// ======================================================================
// テスト関数
// ======================================================================

func TestNewExtractor(t *testing.T) {
	t.Run("success_with_valid_fetcher", func(t *testing.T) {
		extractor, err := extract.NewExtractor(&MockFetcher{})
		assert.NoError(t, err)
		assert.NotNil(t, extractor)
	})

	t.Run("error_with_nil_fetcher", func(t *testing.T) {
		extractor, err := extract.NewExtractor(nil)
		assert.Error(t, err)
		assert.Nil(t, extractor)
		assert.Contains(t, err.Error(), "Fetcher cannot be nil")
	})
}

func TestParse_LiburlparserPage(t *testing.T) {
	result := extract.Parse(liburlparserPage)

	require.NotNil(t, result.Project)
	assert.Equal(t, "liburlparser", *result.Project)
	require.NotNil(t, result.VersionCountMessage)
	assert.Contains(t, *result.VersionCountMessage, "Retrieved 20 versions.")

	expected := []types.VersionRecord{
		{Version: "1.6.0", URL: "./1.6.0", Timestamp: "2025-05-04T13:21:22", Artifacts: types.ParseArtifacts("10")},
		{Version: "1.5.0", URL: "./1.5.0", Timestamp: "2024-10-18T18:22:29", Artifacts: types.ParseArtifacts("31")},
	}
	assert.Equal(t, expected, result.Versions)
	assert.Equal(t, 10, result.Versions[0].Artifacts.Count)
	assert.Equal(t, 31, result.Versions[1].Artifacts.Count)
}

func TestParse_Rows(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected []types.VersionRecord
	}{
		{
			name:     "empty_page",
			html:     "",
			expected: []types.VersionRecord{},
		},
		{
			name:     "unrelated_page",
			html:     `<html><head><title>Just a moment...</title></head><body><div id="challenge"></div></body></html>`,
			expected: []types.VersionRecord{},
		},
		{
			name:     "header_only_table",
			html:     tableWithRows(`<tr><th>Version</th><th>Upload Timestamp</th><th>Artifacts</th></tr>`),
			expected: []types.VersionRecord{},
		},
		{
			name:     "two_cell_row_is_excluded",
			html:     tableWithRows(`<tr><td><a href="./2.0">2.0</a></td><td>2024-01-01T00:00:00</td></tr>`),
			expected: []types.VersionRecord{},
		},
		{
			name: "three_cell_row_is_included",
			html: tableWithRows(`<tr><td><a href="./2.0">2.0</a></td><td>2024-01-01T00:00:00</td><td>3</td></tr>`),
			expected: []types.VersionRecord{
				{Version: "2.0", URL: "./2.0", Timestamp: "2024-01-01T00:00:00", Artifacts: types.ParseArtifacts("3")},
			},
		},
		{
			name: "extra_cells_are_ignored",
			html: tableWithRows(`<tr><td><a href="./2.0">2.0</a></td><td>t</td><td>3</td><td>extra</td></tr>`),
			expected: []types.VersionRecord{
				{Version: "2.0", URL: "./2.0", Timestamp: "t", Artifacts: types.ParseArtifacts("3")},
			},
		},
		{
			name: "row_without_anchor_is_skipped",
			html: tableWithRows(`
				<tr><td>orphan</td><td>2024-01-01T00:00:00</td><td>1</td></tr>
				<tr><td><a href="./1.0">1.0</a></td><td>2023-01-01T00:00:00</td><td>2</td></tr>`),
			expected: []types.VersionRecord{
				{Version: "1.0", URL: "./1.0", Timestamp: "2023-01-01T00:00:00", Artifacts: types.ParseArtifacts("2")},
			},
		},
		{
			name: "whitespace_is_trimmed",
			html: tableWithRows(`<tr><td> <a href="https://example.com/3.0">  3.0 </a></td><td>
				2022-02-02T02:02:02
			</td><td>  10 (estimate)  </td></tr>`),
			expected: []types.VersionRecord{
				{Version: "3.0", URL: "https://example.com/3.0", Timestamp: "2022-02-02T02:02:02", Artifacts: types.ParseArtifacts("10 (estimate)")},
			},
		},
		{
			name: "anchor_without_href_yields_empty_url",
			html: tableWithRows(`<tr><td><a>4.0</a></td><td>t</td><td>1</td></tr>`),
			expected: []types.VersionRecord{
				{Version: "4.0", URL: "", Timestamp: "t", Artifacts: types.ParseArtifacts("1")},
			},
		},
		{
			name: "tbody_rows_are_not_duplicated",
			html: tableWithRows(`<tbody>
				<tr><td><a href="./b">b</a></td><td>2</td><td>2</td></tr>
				<tr><td><a href="./a">a</a></td><td>1</td><td>1</td></tr>
			</tbody>`),
			expected: []types.VersionRecord{
				{Version: "b", URL: "./b", Timestamp: "2", Artifacts: types.ParseArtifacts("2")},
				{Version: "a", URL: "./a", Timestamp: "1", Artifacts: types.ParseArtifacts("1")},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := extract.Parse(tc.html)
			require.NotNil(t, result.Versions, "Versions は nil ではなく空スライスであるべき")
			assert.Equal(t, tc.expected, result.Versions)
		})
	}
}

func TestParse_OptionalFields(t *testing.T) {
	t.Run("missing_project_and_message", func(t *testing.T) {
		result := extract.Parse(tableWithRows(`<tr><td><a href="./1">1</a></td><td>t</td><td>1</td></tr>`))
		assert.Nil(t, result.Project)
		assert.Nil(t, result.VersionCountMessage)
		assert.Len(t, result.Versions, 1)
		assert.Equal(t, "", result.ProjectName())
		assert.Equal(t, "", result.Message())
	})

	t.Run("project_input_without_value", func(t *testing.T) {
		result := extract.Parse(`<form><input name="project"></form>`)
		require.NotNil(t, result.Project)
		assert.Equal(t, "", *result.Project)
	})

	t.Run("first_paragraph_wins", func(t *testing.T) {
		result := extract.Parse(`<p> Retrieved 3 versions. </p><p>second</p>`)
		require.NotNil(t, result.VersionCountMessage)
		assert.Equal(t, "Retrieved 3 versions.", *result.VersionCountMessage)
	})

	t.Run("other_inputs_are_ignored", func(t *testing.T) {
		result := extract.Parse(`<input name="q" value="nope"><input name="project" value="requests">`)
		assert.Equal(t, "requests", result.ProjectName())
	})
}

func TestParse_IsDeterministic(t *testing.T) {
	first := extract.Parse(liburlparserPage)
	second := extract.Parse(liburlparserPage)
	assert.Equal(t, first, second)
}

func TestFetchAndExtract(t *testing.T) {
	t.Run("fetch_error_is_returned", func(t *testing.T) {
		fetchErr := errors.New("network timeout")
		extractor, err := extract.NewExtractor(&MockFetcher{fetchError: fetchErr})
		require.NoError(t, err)

		result, err := extractor.FetchAndExtract(context.Background(), "https://inspector.pypi.io/project/x/")
		assert.ErrorIs(t, err, fetchErr)
		assert.Nil(t, result)
	})

	t.Run("page_is_extracted", func(t *testing.T) {
		fetcher := &MockFetcher{htmlContent: liburlparserPage}
		extractor, err := extract.NewExtractor(fetcher)
		require.NoError(t, err)

		result, err := extractor.FetchAndExtract(context.Background(), "https://inspector.pypi.io/project/liburlparser/")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "https://inspector.pypi.io/project/liburlparser/", fetcher.calledURL)
		assert.Equal(t, "liburlparser", result.ProjectName())
		assert.Len(t, result.Versions, 2)
	})
}

func TestProjectURL(t *testing.T) {
	testCases := []struct {
		name     string
		baseURL  string
		project  string
		expected string
		wantErr  bool
	}{
		{"default_base", "", "liburlparser", "https://inspector.pypi.io/project/liburlparser/", false},
		{"normalized_name", "", "Zope.Interface", "https://inspector.pypi.io/project/zope-interface/", false},
		{"custom_base_without_slash", "http://localhost:8080/project", "requests", "http://localhost:8080/project/requests/", false},
		{"empty_name", "", "   ", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extract.ProjectURL(tc.baseURL, tc.project)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNormalizeProjectName(t *testing.T) {
	assert.Equal(t, "friendly-bard", extract.NormalizeProjectName("Friendly-Bard"))
	assert.Equal(t, "friendly-bard", extract.NormalizeProjectName("FRIENDLY_BARD"))
	assert.Equal(t, "friendly-bard", extract.NormalizeProjectName("friendly.bard"))
	assert.Equal(t, "friendly-bard", extract.NormalizeProjectName("friendly-._bard"))
	assert.Equal(t, "liburlparser", extract.NormalizeProjectName(" liburlparser "))
}

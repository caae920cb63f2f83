package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-pypi-inspector/pkg/types"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------
const (
	// DefaultInspectorBaseURL は inspector サービスのプロジェクト一覧のベースURLです。
	DefaultInspectorBaseURL = "https://inspector.pypi.io/project/"

	// MinCellCount は、データ行とみなすために必要な td セルの最小数です。
	MinCellCount = 3

	// rowSelector は tbody 内の行とテーブル直下の行の両方に一致します。
	// goquery は重複を排除し、DOMの出現順に要素を返します。
	rowSelector     = "table tbody tr, table tr"
	projectSelector = `input[name="project"]`
	messageSelector = "p"

	cellVersion   = 0
	cellTimestamp = 1
	cellArtifacts = 2
)

// Extractor は、Fetcher を使ってページの取得と抽出を管理します。
type Extractor struct {
	fetcher Fetcher
}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor(fetcher Fetcher) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract.NewExtractor: Fetcher cannot be nil")
	}
	return &Extractor{
		fetcher: fetcher,
	}, nil
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// FetchAndExtract は指定されたURLからページを取得し、バージョン表を抽出します。
// 取得のエラーはそのまま返します。抽出自体は失敗しません。
func (e *Extractor) FetchAndExtract(ctx context.Context, pageURL string) (*types.PageResult, error) {
	// 1. Fetcherからデコード済みテキストを取得 (通信の責務)
	pageText, err := e.fetcher.FetchText(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	// 2. テキストから結果を組み立てる (解析の責務)
	result := Parse(pageText)
	return &result, nil
}

// Parse はページテキストを解析し、プロジェクト名・メッセージ・バージョン行を抽出します。
// 入力のみに依存する純粋な関数で、空のページや無関係なページでも空の結果を返します。
func Parse(pageText string) types.PageResult {
	result := types.PageResult{Versions: []types.VersionRecord{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageText))
	if err != nil {
		return result
	}

	result.Project = extractProject(doc)
	result.VersionCountMessage = extractMessage(doc)
	result.Versions = extractVersions(doc)
	return result
}

// extractProject は name="project" の input 要素から value 属性を取り出します。
func extractProject(doc *goquery.Document) *string {
	input := doc.Find(projectSelector).First()
	if input.Length() == 0 {
		return nil
	}
	value, _ := input.Attr("value")
	return &value
}

// extractMessage は最初の段落要素のテキストを返します ("Retrieved 20 versions." など)。
func extractMessage(doc *goquery.Document) *string {
	p := doc.Find(messageSelector).First()
	if p.Length() == 0 {
		return nil
	}
	text := strings.TrimSpace(p.Text())
	return &text
}

// extractVersions はテーブルの各データ行を VersionRecord に変換します。
func extractVersions(doc *goquery.Document) []types.VersionRecord {
	versions := []types.VersionRecord{}
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		if record, ok := parseRow(row); ok {
			versions = append(versions, record)
		}
	})
	return versions
}

// parseRow は1行を解析します。セル数が足りない行 (th のみのヘッダー行など) と、
// 先頭セルにリンクがない行はスキップされます。
func parseRow(row *goquery.Selection) (types.VersionRecord, bool) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < MinCellCount {
		return types.VersionRecord{}, false
	}

	link := cells.Eq(cellVersion).Find("a").First()
	if link.Length() == 0 {
		return types.VersionRecord{}, false
	}
	href, _ := link.Attr("href")

	return types.VersionRecord{
		Version:   strings.TrimSpace(link.Text()),
		URL:       href,
		Timestamp: strings.TrimSpace(cells.Eq(cellTimestamp).Text()),
		Artifacts: types.ParseArtifacts(cells.Eq(cellArtifacts).Text()),
	}, true
}

// ProjectURL は inspector のベースURLとプロジェクト名から一覧ページのURLを組み立てます。
// プロジェクト名は PEP 503 に従って正規化されます。
func ProjectURL(baseURL, project string) (string, error) {
	name := NormalizeProjectName(project)
	if name == "" {
		return "", fmt.Errorf("プロジェクト名が空です")
	}
	if baseURL == "" {
		baseURL = DefaultInspectorBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + url.PathEscape(name) + "/", nil
}

// NormalizeProjectName は PEP 503 の規則でプロジェクト名を正規化します。
// 連続する "-", "_", "." は1つの "-" にまとめられ、小文字化されます。
func NormalizeProjectName(project string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(project)) {
		if r == '-' || r == '_' || r == '.' {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}

package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/shouni/go-pypi-inspector/pkg/extract"
	"github.com/shouni/go-pypi-inspector/pkg/types"
)

const (
	// DefaultFeedBaseURL は PyPI のプロジェクト別RSSのベースURLです。
	DefaultFeedBaseURL = "https://pypi.org/rss/project/"

	// TimestampLayout は inspector の表と同じ形式 (秒精度、タイムゾーンなし) です。
	TimestampLayout = "2006-01-02T15:04:05"
)

// Fetcher は Parser が依存するインターフェースです。
// XMLの文字コード宣言を gofeed に解釈させるため、生のバイト配列を受け取ります。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Parser はPyPIのリリースフィードを取得し、VersionRecord に変換します。
type Parser struct {
	client  Fetcher
	baseURL string
}

// NewParser は新しい Parser インスタンスを初期化し、依存関係を注入します。
// baseURL が空の場合は DefaultFeedBaseURL を使用します。
func NewParser(client Fetcher, baseURL string) *Parser {
	if baseURL == "" {
		baseURL = DefaultFeedBaseURL
	}
	return &Parser{client: client, baseURL: baseURL}
}

// ReleasesURL はプロジェクトのリリースフィードのURLを返します。
func (p *Parser) ReleasesURL(project string) (string, error) {
	name := extract.NormalizeProjectName(project)
	if name == "" {
		return "", fmt.Errorf("プロジェクト名が空です")
	}
	base := p.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(name) + "/releases.xml", nil
}

// FetchAndParse は指定されたURLからフィードを取得し、パースします。
func (p *Parser) FetchAndParse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := p.client.FetchBytes(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得失敗 (URL: %s): %w", feedURL, err)
	}

	fp := gofeed.NewParser()
	parsed, parseErr := fp.Parse(bytes.NewReader(body))
	if parseErr != nil {
		return nil, fmt.Errorf("RSSフィードのパース失敗 (URL: %s): %w", feedURL, parseErr)
	}
	return parsed, nil
}

// FetchReleases はプロジェクトのリリースフィードを取得し、フィードの順序のまま VersionRecord を返します。
func (p *Parser) FetchReleases(ctx context.Context, project string) ([]types.VersionRecord, error) {
	feedURL, err := p.ReleasesURL(project)
	if err != nil {
		return nil, err
	}
	parsed, err := p.FetchAndParse(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return Releases(parsed), nil
}

// Releases は gofeed.Feed の各アイテムを VersionRecord に変換します。
// フィードにはアーティファクト数が含まれないため、Artifacts は空のテキストになります。
// タイトルが空のアイテムは無視されます。
func Releases(f *gofeed.Feed) []types.VersionRecord {
	if f == nil || len(f.Items) == 0 {
		return []types.VersionRecord{}
	}

	records := make([]types.VersionRecord, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		version := strings.TrimSpace(item.Title)
		if version == "" {
			continue
		}
		records = append(records, types.VersionRecord{
			Version:   version,
			URL:       item.Link,
			Timestamp: itemTimestamp(item),
		})
	}
	return records
}

// itemTimestamp は公開日時を UTC の TimestampLayout で返します。
// 解析できない場合は元の文字列を返します。
func itemTimestamp(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.In(time.UTC).Format(TimestampLayout)
	}
	return strings.TrimSpace(item.Published)
}

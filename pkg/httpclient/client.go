package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const (
	// HTTPクライアント関連の定数
	DefaultHTTPTimeout = 10 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB: レスポンスボディの最大読み込みサイズ

	// ブラウザ以外のクライアントを拒否するサーバー対策のUser-Agent
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// browserHeaders は、すべてのGETリクエストに付与する固定ヘッダーです。
var browserHeaders = [][2]string{
	{"User-Agent", UserAgent},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.5"},
	{"Accept-Encoding", "gzip, deflate"},
	{"Connection", "keep-alive"},
	{"Upgrade-Insecure-Requests", "1"},
}

// ErrInvalidInput は、URLが空の場合に通信前に返されるエラーです。
// 呼び出し側のプログラミングミスを示すため、ログには出さずそのまま返します。
var ErrInvalidInput = errors.New("httpclient: URLは空でない文字列である必要があります")

// FailureKind は、取得失敗の分類です。
type FailureKind int

const (
	// KindNetwork は、URL不正・DNS・接続・タイムアウトなどの通信エラーです。
	KindNetwork FailureKind = iota
	// KindHTTPStatus は、サーバーがエラーステータスを返したことを示します。
	KindHTTPStatus
	// KindBody は、ボディの読み込み・展開・デコードの失敗です。
	KindBody
)

func (k FailureKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http-status"
	case KindBody:
		return "body"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// FetchError は、ページ取得が内容を返せなかったことを示すエラー型です。
type FetchError struct {
	URL        string
	Kind       FailureKind
	StatusCode int // Kind が KindHTTPStatus の場合のみ有効
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("HTTPエラー %d (%s): URL: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("ページの取得に失敗しました (%s): URL: %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("ページの取得に失敗しました (%s): URL: %s", e.Kind, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchFailure は与えられたエラーが取得失敗 (FetchError) であるかを判断します。
func IsFetchFailure(err error) bool {
	if err == nil {
		return false
	}
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// Doer は、標準の *http.Client.Do() と互換性のあるインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client はブラウザ風ヘッダー付きのGETと、レスポンスのデコードを担当します。
// 可変状態を持たないため、複数のゴルーチンから同時に利用できます。
type Client struct {
	httpClient Doer
	logger     *log.Logger
}

// ClientOption はClientの設定を行うための関数型です。
type ClientOption func(*Client)

// WithHTTPClient はカスタムのDoerを設定します。
func WithHTTPClient(doer Doer) ClientOption {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithLogger は取得失敗の通知を出力するロガーを設定します。
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New は、新しいClientを生成します。timeout が0以下の場合は DefaultHTTPTimeout を使用します。
// リダイレクトは http.Client の既定の動作に従って自動的に追跡されます。
func New(timeout time.Duration, options ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FetchText はURLからページを取得し、宣言された文字コードでデコードしたテキストを返します。
// 失敗時は *FetchError を返し、診断メッセージをロガーに出力します。
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	body, contentType, err := c.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := c.decode(body, contentType)
	if err != nil {
		return "", c.fail(&FetchError{URL: url, Kind: KindBody, Err: err})
	}
	return text, nil
}

// FetchBytes はURLからページを取得し、展開済みの生のバイト配列を返します。
// 文字コードの解釈は呼び出し側 (XMLパーサーなど) に任せます。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// fetch は一度のHTTP GETリクエストを実行し、展開済みボディと Content-Type を返します。
func (c *Client) fetch(ctx context.Context, url string) ([]byte, string, error) {
	if strings.TrimSpace(url) == "" {
		return nil, "", ErrInvalidInput
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", c.fail(&FetchError{URL: url, Kind: KindNetwork, Err: fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)})
	}
	addBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", c.fail(&FetchError{URL: url, Kind: KindNetwork, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", c.fail(&FetchError{URL: url, Kind: KindHTTPStatus, StatusCode: resp.StatusCode})
	}

	raw, err := readLimited(resp.Body)
	if err != nil {
		return nil, "", c.fail(&FetchError{URL: url, Kind: KindBody, Err: err})
	}

	body, err := decompress(raw, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, "", c.fail(&FetchError{URL: url, Kind: KindBody, Err: err})
	}

	c.logger.Debug("ページを取得しました", "url", url, "status", resp.StatusCode, "bytes", len(body))
	return body, resp.Header.Get("Content-Type"), nil
}

// fail は取得失敗を通知し、そのままエラーを返します。
func (c *Client) fail(err *FetchError) error {
	switch err.Kind {
	case KindHTTPStatus:
		c.logger.Warn("HTTPエラー", "status", err.StatusCode, "reason", http.StatusText(err.StatusCode), "url", err.URL)
	default:
		c.logger.Warn("URLエラー", "kind", err.Kind, "err", err.Err, "url", err.URL)
	}
	return err
}

// addBrowserHeaders は共通のHTTPヘッダーを設定します。
func addBrowserHeaders(req *http.Request) {
	for _, h := range browserHeaders {
		req.Header.Set(h[0], h[1])
	}
}

// readLimited はレスポンスボディを MaxBodySize まで読み込みます。
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}
	if int64(len(data)) > MaxBodySize {
		return nil, fmt.Errorf("レスポンスボディが最大サイズ (%dバイト) を超えました", MaxBodySize)
	}
	return data, nil
}

// decompress は Content-Encoding に従ってボディを展開します。
// Accept-Encoding を明示的に送っているため、Transport による自動展開は行われません。
func decompress(data []byte, contentEncoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return data, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzipの展開に失敗しました: %w", err)
		}
		defer zr.Close()
		return readLimited(zr)
	case "deflate":
		// zlibヘッダー付きが正式だが、生のdeflateを返すサーバーもある
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			fr := flate.NewReader(bytes.NewReader(data))
			defer fr.Close()
			return readLimited(fr)
		}
		defer zr.Close()
		return readLimited(zr)
	default:
		return nil, fmt.Errorf("未対応の Content-Encoding です: %s", contentEncoding)
	}
}

// decode は Content-Type の charset に従ってボディをテキストに変換します。
// 不正なバイト列は U+FFFD に置き換えられます。
func (c *Client) decode(body []byte, contentType string) (string, error) {
	enc := c.lookupEncoding(charsetLabel(contentType))
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("文字コードの変換に失敗しました: %w", err)
	}
	return string(out), nil
}

// lookupEncoding はラベルに対応するエンコーディングを返します。
// 未知のラベルの場合は警告を出し、UTF-8 にフォールバックします。
func (c *Client) lookupEncoding(label string) encoding.Encoding {
	if label == "" {
		return unicode.UTF8
	}
	// "utf-8" は unicode.UTF8 に解決され、不正なバイト列は U+FFFD に置き換えられる
	enc, _ := charset.Lookup(label)
	if enc == nil {
		c.logger.Warn("未知の文字コードのため UTF-8 で解釈します", "charset", label)
		return unicode.UTF8
	}
	return enc
}

// charsetLabel は Content-Type ヘッダーから charset パラメーターを取り出します。
func charsetLabel(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

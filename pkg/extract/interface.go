package extract

import (
	"context"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、URLからデコード済みのページテキストを取得する機能のインターフェースを定義します。
// Extractor は、この抽象に依存します。*httpclient.Client がこれを満たします。
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-pypi-inspector/pkg/extract"
	"github.com/shouni/go-pypi-inspector/pkg/types"
)

// InspectProject は、プロジェクト名 (またはURL) から inspector ページを取得し、バージョン表を抽出するパイプラインです。
// overallTimeout は取得と解析の全体をカバーします。0以下の場合はコンテキストをそのまま使います。
func InspectProject(ctx context.Context, extractor *extract.Extractor, baseURL, target string, overallTimeout time.Duration) (*types.PageResult, error) {
	// 1. 対象URLの決定
	pageURL, err := ResolveTarget(baseURL, target)
	if err != nil {
		return nil, err
	}

	// 2. 全体処理のコンテキストを設定
	if overallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, overallTimeout)
		defer cancel()
	}

	// 3. 取得と抽出の実行
	result, err := extractor.FetchAndExtract(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("inspectorページの抽出エラー (URL: %s): %w", pageURL, err)
	}
	return result, nil
}

// ResolveTarget は、http(s) のURLはそのまま、それ以外はプロジェクト名として inspector のURLを組み立てます。
func ResolveTarget(baseURL, target string) (string, error) {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target, nil
	}
	pageURL, err := extract.ProjectURL(baseURL, target)
	if err != nil {
		return "", fmt.Errorf("対象URLの組み立てエラー: %w", err)
	}
	return pageURL, nil
}

package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shouni/go-pypi-inspector/pkg/types"
)

// Page は抽出結果を人が読める表形式で出力します。
func Page(w io.Writer, result types.PageResult) {
	if result.Project != nil {
		fmt.Fprintf(w, "プロジェクト: %s\n", *result.Project)
	}
	if result.VersionCountMessage != nil {
		fmt.Fprintf(w, "情報: %s\n", *result.VersionCountMessage)
	}
	Versions(w, result.Versions)
}

// Versions はバージョン一覧を表として出力します。
func Versions(w io.Writer, versions []types.VersionRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Upload Timestamp", "Artifacts", "URL"})
	for _, v := range versions {
		t.AppendRow(table.Row{v.Version, v.Timestamp, v.Artifacts.String(), v.URL})
	}
	t.AppendFooter(table.Row{"", "", "合計", len(versions)})
	t.Render()
}

// JSON は値をインデント付きのJSONとして出力します。
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSONの出力に失敗しました: %w", err)
	}
	return nil
}

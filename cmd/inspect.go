package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shouni/go-pypi-inspector/internal/config"
	"github.com/shouni/go-pypi-inspector/internal/pipeline"
	"github.com/shouni/go-pypi-inspector/internal/render"
	"github.com/shouni/go-pypi-inspector/pkg/extract"
	"github.com/shouni/go-pypi-inspector/pkg/types"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:           "inspect <project|URL>",
		Short:         "inspector ページを取得し、バージョン表を表示します",
		Long:          `プロジェクト名 (例: liburlparser) または inspector ページのURLを受け取り、バージョン一覧を抽出して表示します。`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE:          a.runE(func(cmd *cobra.Command, args []string) error {
			extractor, err := extract.NewExtractor(a.fetcher)
			if err != nil {
				return fmt.Errorf("Extractorの初期化エラー: %w", err)
			}

			overallTimeout := a.cfg.Timeout * overallTimeoutFactor
			result, err := pipeline.InspectProject(context.Background(), extractor, a.cfg.InspectorBaseURL, args[0], overallTimeout)
			if err != nil {
				return err
			}
			a.logger.Debug("抽出が完了しました", "versions", len(result.Versions))

			return writePage(cmd.OutOrStdout(), a.cfg.Output, *result)
		}),
	}
}

// writePage は設定された形式で抽出結果を出力します。
func writePage(w io.Writer, output string, result types.PageResult) error {
	if output == config.OutputJSON {
		return render.JSON(w, result)
	}
	render.Page(w, result)
	return nil
}

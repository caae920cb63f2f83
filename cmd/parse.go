package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-pypi-inspector/pkg/extract"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:           "parse [FILE]",
		Short:         "保存済みの inspector ページを解析します (通信なし)",
		Long:          `ファイル、または FILE が省略されるか "-" の場合は標準入力から HTML を読み込み、バージョン表を抽出します。`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE:          a.runE(func(cmd *cobra.Command, args []string) error {
			pageText, err := readPage(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			result := extract.Parse(pageText)
			a.logger.Debug("抽出が完了しました", "versions", len(result.Versions))
			return writePage(cmd.OutOrStdout(), a.cfg.Output, result)
		}),
	}
}

// readPage は引数のファイルまたは標準入力からページテキストを読み込みます。
func readPage(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("標準入力の読み取りエラー: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("ファイルの読み取りエラー: %w", err)
	}
	return string(data), nil
}

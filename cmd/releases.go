package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-pypi-inspector/internal/config"
	"github.com/shouni/go-pypi-inspector/internal/render"
	"github.com/shouni/go-pypi-inspector/pkg/feed"
)

func newReleasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:           "releases <project>",
		Short:         "PyPI のリリースフィード (RSS) からバージョン一覧を表示します",
		Long:          `inspector ページの代わりに PyPI のリリースフィードを取得します。フィードにはアーティファクト数が含まれません。`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE:          a.runE(func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout*overallTimeoutFactor)
			defer cancel()

			parser := feed.NewParser(a.fetcher, a.cfg.FeedBaseURL)
			records, err := parser.FetchReleases(ctx, args[0])
			if err != nil {
				return fmt.Errorf("リリースフィードの取得エラー: %w", err)
			}

			if a.cfg.Output == config.OutputJSON {
				return render.JSON(cmd.OutOrStdout(), records)
			}
			render.Versions(cmd.OutOrStdout(), records)
			return nil
		}),
	}
}

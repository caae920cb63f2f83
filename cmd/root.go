package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-pypi-inspector/internal/config"
	"github.com/shouni/go-pypi-inspector/pkg/httpclient"
)

// --- グローバル定数 ---

const (
	appName = "pip-inspector"

	// 全体処理のタイムアウトはクライアントタイムアウトの2倍とする
	overallTimeoutFactor = 2
)

// app はサブコマンド間で共有される状態です。PersistentPreRunE で初期化されます。
type app struct {
	cfg     config.Config
	logger  *log.Logger
	fetcher *httpclient.Client
}

// newLogger はタイムスタンプ付きのロガーを生成します。
func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Prefix:          appName,
		Level:           log.InfoLevel,
	})
}

func newApp(logOutput io.Writer) *app {
	return &app{logger: newLogger(logOutput)}
}

// subcommands はルートコマンドに登録するサブコマンドの一覧を返します。
func (a *app) subcommands() []*cobra.Command {
	return []*cobra.Command{
		newInspectCmd(a),
		newParseCmd(a),
		newReleasesCmd(a),
	}
}

// newRootCmd はすべてのサブコマンドを登録したルートコマンドを生成します。
// clibase.Execute は内部で os.Exit を呼ぶため、テストではこちらを使います。
func newRootCmd(logOutput io.Writer) *cobra.Command {
	a := newApp(logOutput)

	root := &cobra.Command{
		Use:           appName,
		Short:         "PyPI inspector のバージョン表を取得・解析するツール",
		Long:          `inspector.pypi.io のプロジェクトページからバージョン一覧 (バージョン、アップロード日時、アーティファクト数) を抽出します。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, false)
		},
	}
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(a.subcommands()...)
	return root
}

// init はフラグと環境変数から設定を読み込み、共有フェッチャーを初期化します。
// verbose は clibase の --verbose フラグの値です。
func (a *app) init(cmd *cobra.Command, verbose bool) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	cfg.Verbose = cfg.Verbose || verbose
	a.cfg = cfg

	if cfg.Verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	a.logger.Debug("設定を読み込みました", "timeout", cfg.Timeout, "output", cfg.Output)

	a.fetcher = httpclient.New(cfg.Timeout, httpclient.WithLogger(a.logger))
	return nil
}

// runE はサブコマンドの処理をラップし、エラーをロガーに一度だけ報告します。
// 取得失敗は httpclient が既に警告を出しているため、デバッグレベルに留めます。
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if httpclient.IsFetchFailure(err) {
			a.logger.Debug("コマンドが失敗しました", "err", err)
		} else {
			a.logger.Error(err)
		}
		return err
	}
}

// --- エントリポイント ---

// Execute は、ルートコマンドを実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	a := newApp(os.Stderr)

	// clibase.Flags.Verbose は initAppPreRunE の実行前に設定済み
	initAppPreRunE := func(cmd *cobra.Command, args []string) error {
		return a.init(cmd, clibase.Flags.Verbose)
	}
	addAppPersistentFlags := func(rootCmd *cobra.Command) {
		config.AddAppFlags(rootCmd.PersistentFlags())
	}

	// clibase.Execute の中で os.Exit(1) が処理される
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		a.subcommands()...,
	)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shouni/go-pypi-inspector/pkg/extract"
	"github.com/shouni/go-pypi-inspector/pkg/feed"
)

// --- グローバル定数 ---

const (
	// EnvPrefix は環境変数の接頭辞です (例: PIP_INSPECTOR_TIMEOUT)。
	EnvPrefix = "PIP_INSPECTOR"

	defaultTimeoutSec = 10 // 秒

	OutputTable = "table"
	OutputJSON  = "json"

	keyTimeout       = "timeout"
	keyInspectorBase = "inspector-url"
	keyFeedBase      = "feed-url"
	keyOutput        = "output"
	keyVerbose       = "verbose"
)

// Config はCLI全体で共有される設定値です。
type Config struct {
	Timeout          time.Duration // HTTPリクエストのタイムアウト
	InspectorBaseURL string        // inspector のプロジェクト一覧のベースURL
	FeedBaseURL      string        // リリースフィードのベースURL
	Output           string        // 出力形式 (table または json)
	Verbose          bool          // デバッグログを出力するか
}

// AddAppFlags はアプリケーション固有の永続フラグを追加します。
// --verbose は clibase がルートコマンドに定義するため、ここでは追加しません。
func AddAppFlags(fs *pflag.FlagSet) {
	fs.Int(keyTimeout, defaultTimeoutSec, "HTTPリクエストのタイムアウト時間（秒）")
	fs.String(keyInspectorBase, extract.DefaultInspectorBaseURL, "inspector のプロジェクト一覧のベースURL")
	fs.String(keyFeedBase, feed.DefaultFeedBaseURL, "PyPIリリースフィードのベースURL")
	fs.StringP(keyOutput, "o", OutputTable, "出力形式 (table | json)")
}

// AddFlags は AddAppFlags に --verbose を加えたフラグ一式を追加します。
// clibase を介さずにルートコマンドを組み立てる場合に使います。
func AddFlags(fs *pflag.FlagSet) {
	AddAppFlags(fs)
	fs.BoolP(keyVerbose, "v", false, "デバッグログを出力する")
}

// Load はフラグと環境変数から設定を読み込みます。
// 明示的に指定されたフラグ、環境変数、フラグの既定値の順に優先されます。
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("フラグのバインドに失敗しました: %w", err)
	}

	cfg := Config{
		Timeout:          time.Duration(v.GetInt(keyTimeout)) * time.Second,
		InspectorBaseURL: v.GetString(keyInspectorBase),
		FeedBaseURL:      v.GetString(keyFeedBase),
		Output:           strings.ToLower(v.GetString(keyOutput)),
		Verbose:          v.GetBool(keyVerbose),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を確認します。
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("タイムアウトは1秒以上を指定してください: %s", c.Timeout)
	}
	if c.Output != OutputTable && c.Output != OutputJSON {
		return fmt.Errorf("無効な出力形式です。table または json を指定してください: %s", c.Output)
	}
	return nil
}

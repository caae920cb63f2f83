package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Artifacts は、バージョン行のアーティファクト数セルの値を保持します。
// セルが10進数字のみで構成される場合は Count に整数が入り、それ以外は Text に生のテキストが残ります。
type Artifacts struct {
	Count   int    // 数値として解釈できた場合の件数
	Text    string // トリム済みの元テキスト
	Numeric bool   // Count が有効かどうか
}

// ParseArtifacts は、トリム済みのセルテキストから Artifacts を生成します。
// "10" は整数 10、"10 (estimate)" はテキストのまま保持されます。
func ParseArtifacts(cell string) Artifacts {
	text := strings.TrimSpace(cell)
	if !isDecimalDigits(text) {
		return Artifacts{Text: text}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		// int に収まらない桁数はテキストとして扱う
		return Artifacts{Text: text}
	}
	return Artifacts{Count: n, Text: text, Numeric: true}
}

func isDecimalDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String は、表示用の文字列を返します。
func (a Artifacts) String() string {
	if a.Numeric {
		return strconv.Itoa(a.Count)
	}
	return a.Text
}

// MarshalJSON は、数値の場合はJSON数値、それ以外はJSON文字列として出力します。
func (a Artifacts) MarshalJSON() ([]byte, error) {
	if a.Numeric {
		return json.Marshal(a.Count)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON は、JSON数値とJSON文字列の両方を受け付けます。
func (a *Artifacts) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Artifacts{Count: n, Text: strconv.Itoa(n), Numeric: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = Artifacts{Text: s}
	return nil
}

// VersionRecord は、バージョン表の1行分のメタデータです。
type VersionRecord struct {
	Version   string    `json:"version"`   // バージョンラベル (例: "1.6.0")
	URL       string    `json:"url"`       // リンク先 (相対または絶対)
	Timestamp string    `json:"timestamp"` // 取得元の形式のままのアップロード日時
	Artifacts Artifacts `json:"artifacts"`
}

// PageResult は、1ページ分の抽出結果を保持します。
// Project と VersionCountMessage は、対応する要素がページに存在しない場合 nil になります。
type PageResult struct {
	Project             *string         `json:"project"`
	VersionCountMessage *string         `json:"version_count_message"`
	Versions            []VersionRecord `json:"versions"`
}

// ProjectName は、プロジェクト名が存在しない場合に空文字列を返すヘルパーです。
func (r PageResult) ProjectName() string {
	if r.Project == nil {
		return ""
	}
	return *r.Project
}

// Message は、バージョン数メッセージが存在しない場合に空文字列を返すヘルパーです。
func (r PageResult) Message() string {
	if r.VersionCountMessage == nil {
		return ""
	}
	return *r.VersionCountMessage
}

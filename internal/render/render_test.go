package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-pypi-inspector/pkg/types"
)

func TestPage(t *testing.T) {
	project := "liburlparser"
	msg := "Retrieved 20 versions."
	result := types.PageResult{
		Project:             &project,
		VersionCountMessage: &msg,
		Versions: []types.VersionRecord{
			{Version: "1.6.0", URL: "./1.6.0", Timestamp: "2025-05-04T13:21:22", Artifacts: types.ParseArtifacts("10")},
		},
	}

	var buf bytes.Buffer
	Page(&buf, result)
	out := buf.String()
	assert.Contains(t, out, "プロジェクト: liburlparser")
	assert.Contains(t, out, "情報: Retrieved 20 versions.")
	assert.Contains(t, out, "1.6.0")
	assert.Contains(t, out, "2025-05-04T13:21:22")
	assert.Contains(t, out, "./1.6.0")
}

func TestPage_MissingFields(t *testing.T) {
	var buf bytes.Buffer
	Page(&buf, types.PageResult{Versions: []types.VersionRecord{}})
	assert.NotContains(t, buf.String(), "プロジェクト:")
	assert.NotContains(t, buf.String(), "情報:")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, types.PageResult{Versions: []types.VersionRecord{}}))
	assert.JSONEq(t, `{"project": null, "version_count_message": null, "versions": []}`, buf.String())

	assert.Error(t, JSON(&buf, make(chan int)))
}

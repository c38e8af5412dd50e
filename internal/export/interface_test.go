package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		want    Exporter
		wantExt string
	}{
		{"md", &MarkdownExporter{}, "md"},
		{"markdown", &MarkdownExporter{}, "md"},
		{"json", &JSONExporter{}, "json"},
		{"yaml", &YAMLExporter{}, "yaml"},
		{"yml", &YAMLExporter{}, "yaml"},
		{"jsonl", &JSONLExporter{}, "jsonl"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			require.NoError(t, err)
			assert.IsType(t, tt.want, exporter)
			assert.Equal(t, tt.wantExt, exporter.Extension())
		})
	}
}

func TestNewExporter_Unsupported(t *testing.T) {
	for _, format := range []string{"", "xml", "MD"} {
		exporter, err := NewExporter(format)
		assert.Nil(t, exporter, format)
		require.Error(t, err, format)
		assert.Contains(t, err.Error(), "supported: md, json, yaml, jsonl")
	}
}

func TestFormats_AllExport(t *testing.T) {
	sess := testSession("abc123")
	for _, format := range Formats {
		exporter, err := NewExporter(format)
		require.NoError(t, err, format)

		var buf bytes.Buffer
		require.NoError(t, exporter.Export(sess, &buf), format)
		assert.Contains(t, buf.String(), sess.ID, format)
	}
}

func TestDefaultFileName(t *testing.T) {
	tests := []struct {
		id     string
		format string
		want   string
	}{
		{"0123456789abcdef", "md", "grok-session-01234567.md"},
		{"0123456789abcdef", "jsonl", "grok-session-01234567.jsonl"},
		{"short", "yml", "grok-session-short.yaml"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s.%s", tt.id, tt.format), func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DefaultFileName(testSession(tt.id), exporter))
		})
	}
}

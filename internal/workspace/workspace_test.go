package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aigent47/grok-code/testutil"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name:  "empty directory",
			files: nil,
			want:  nil,
		},
		{
			name:  "node project",
			files: map[string]string{"package.json": `{"name":"demo","version":"1.2.3"}`},
			want:  []string{"Node.js project: demo v1.2.3"},
		},
		{
			name:  "go module",
			files: map[string]string{"go.mod": "module example.com/demo\n\ngo 1.23.0\n"},
			want:  []string{"Go module: example.com/demo (go 1.23.0)"},
		},
		{
			name:  "python project",
			files: map[string]string{"requirements.txt": "requests\n"},
			want:  []string{"Python project detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.CreateTempDir(t)
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			got := Detect(context.Background(), dir).Lines()
			if len(got) != len(tt.want) {
				t.Fatalf("Lines() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Lines()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTask(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("[project]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var notices []string
	err := Task(func() string { return dir })(context.Background(), func(s string) { notices = append(notices, s) })
	if err != nil {
		t.Fatalf("Task() error = %v", err)
	}
	if len(notices) != 1 || notices[0] != "Python project detected" {
		t.Errorf("Task() notices = %v", notices)
	}
}

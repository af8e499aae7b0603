package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	keyFile := filepath.Join(dir, "gemini.key")
	if err := os.WriteFile(keyFile, []byte("  file-secret\n"), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty.key")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing empty key file: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{
			name: "inline value is trimmed",
			src:  Source{Name: "gemini api key", Value: "  inline-secret  "},
			want: "inline-secret",
		},
		{
			name: "file takes precedence over value",
			src:  Source{Name: "gemini api key", Value: "inline-secret", File: keyFile},
			want: "file-secret",
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "gemini api key"},
			wantErr: "gemini api key is not configured",
		},
		{
			name:    "empty file",
			src:     Source{Name: "gemini api key", File: emptyFile},
			wantErr: "is empty",
		},
		{
			name:    "unreadable file",
			src:     Source{Name: "gemini api key", File: filepath.Join(dir, "absent.key")},
			wantErr: "reading gemini api key",
		},
		{
			name:    "unnamed secret still reports an error",
			src:     Source{},
			wantErr: "secret is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected an error containing %q, got none", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %q", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

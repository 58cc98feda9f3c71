package archive

import (
	"errors"
	"strings"
	"testing"
)

func TestS3_ImplementsStore(t *testing.T) {
	var _ Store = (*S3)(nil)
}

func TestS3_ObjectKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "results/bt-1.json", "results/bt-1.json"},
		{"trendsim", "results/bt-1.json", "trendsim/results/bt-1.json"},
		{"trendsim/", "results/bt-1.json", "trendsim/results/bt-1.json"},
	}
	for _, tt := range tests {
		s := &S3{prefix: strings.TrimSuffix(tt.prefix, "/")}
		if got := s.objectKey(tt.key); got != tt.want {
			t.Errorf("objectKey(%q) with prefix %q = %q, want %q",
				tt.key, tt.prefix, got, tt.want)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("operation error S3: GetObject, NoSuchKey"), true},
		{errors.New("operation error S3: HeadObject, https response error StatusCode: 404"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := isNotFound(tt.err); got != tt.want {
			t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

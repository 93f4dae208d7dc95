package explorer

import (
	"strings"
	"testing"

	"github.com/vtart/go-gallery/internal/models"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		mime   string
		want   string
		wantOK bool
	}{
		{"image/png", models.FileTypeImage, true},
		{"image/jpeg", models.FileTypeImage, true},
		{"video/mp4", models.FileTypeVideo, true},
		{"video/quicktime", models.FileTypeVideo, true},
		{"application/pdf", "", false},
		{"text/plain", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := detectFileType(tt.mime)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("detectFileType(%q) = (%q, %v), want (%q, %v)", tt.mime, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPhysicalFileNameKeepsExtension(t *testing.T) {
	name := physicalFileName("Family Photo.JPG")
	if !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("name %q must keep a lowercased extension", name)
	}
	if name == physicalFileName("Family Photo.JPG") {
		t.Fatal("physical names must be unique")
	}
}

func TestObjectKeyLayout(t *testing.T) {
	if got := objectKey(7, models.FileTypeImage, "a.jpg"); got != "users/7/images/a.jpg" {
		t.Fatalf("image key = %q", got)
	}
	if got := objectKey(7, models.FileTypeVideo, "a.mp4"); got != "users/7/videos/a.mp4" {
		t.Fatalf("video key = %q", got)
	}
}

func TestThumbnailKey(t *testing.T) {
	if got := thumbnailKey("users/7/images/a.jpg"); got != "users/7/images/thumb_a.jpg" {
		t.Fatalf("thumbnail key = %q", got)
	}
}

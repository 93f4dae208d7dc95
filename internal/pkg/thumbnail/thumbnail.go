package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/vtart/go-gallery/internal/config"
)

// Result 缩略图生成结果，同时带回原图尺寸
type Result struct {
	Data      *bytes.Buffer // JPEG编码后的缩略图
	Width     int           // 原图宽度
	Height    int           // 原图高度
	ThumbSize image.Point   // 缩略图实际尺寸
}

// Generator 负责图片缩略图生成
type Generator struct {
	maxWidth  int
	maxHeight int
	quality   int
}

func NewGenerator(cfg *config.ThumbnailConfig) *Generator {
	g := &Generator{maxWidth: cfg.MaxWidth, maxHeight: cfg.MaxHeight, quality: cfg.Quality}
	if g.maxWidth <= 0 {
		g.maxWidth = 300
	}
	if g.maxHeight <= 0 {
		g.maxHeight = 300
	}
	if g.quality <= 0 || g.quality > 100 {
		g.quality = 80
	}
	return g
}

// Generate 从原图数据生成等比缩放的JPEG缩略图
// 不放大小于目标尺寸的图片
func (g *Generator) Generate(r io.Reader) (*Result, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}

	bounds := src.Bounds()
	thumb := imaging.Fit(src, g.maxWidth, g.maxHeight, imaging.Lanczos)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
		return nil, fmt.Errorf("编码缩略图失败: %w", err)
	}

	return &Result{
		Data:      buf,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		ThumbSize: thumb.Bounds().Size(),
	}, nil
}

// Package ascii 把精灵帧转成字符画
package ascii

import (
	"image"
	"image/color"
	"strings"
)

// asciiChars 从暗到亮
const asciiChars = "@%#*+=-:. "

// Convert 将图片转换为字符画，每行 targetWidth 个字符左右
//
// 终端字符高约为宽的两倍，所以纵向采样步长是横向的两倍；透明像素输出空格
func Convert(img image.Image, targetWidth int) []string {
	b := img.Bounds()
	if targetWidth < 1 || b.Empty() {
		return nil
	}

	stepX := b.Dx() / targetWidth
	if stepX < 1 {
		stepX = 1
	}
	stepY := stepX * 2

	var result []string
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		var line strings.Builder
		for x := b.Min.X; x < b.Max.X; x += stepX {
			line.WriteByte(pixelToASCII(img.At(x, y)))
		}
		result = append(result, line.String())
	}
	return result
}

func pixelToASCII(c color.Color) byte {
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return ' '
	}
	gray := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)

	idx := int(gray / 255 * float64(len(asciiChars)-1))
	// 亮色像素不能变成空格，否则和透明区域混在一起
	idx = min(idx, len(asciiChars)-2)
	return asciiChars[idx]
}

// Mirror 水平翻转字符画
func Mirror(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		b := []byte(line)
		for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
			b[l], b[r] = b[r], b[l]
		}
		out[i] = string(b)
	}
	return out
}

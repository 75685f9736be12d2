package tui

import (
	"strings"

	"github.com/gonewx/feedcat/pkg/components"
	"github.com/gonewx/feedcat/pkg/game"
)

const fishGlyph = "<><"

// canvas 把快照画成字符网格
type canvas struct {
	pxPerCol float64
	pxPerRow float64
	frames   map[[2]int][]string // 朝右的猫帧
	mirrored map[[2]int][]string // 朝左的猫帧
}

func (c *canvas) size(snap game.Snapshot) (cols, rows int) {
	return max(int(snap.Width/c.pxPerCol), 1), max(int(snap.Height/c.pxPerRow), 1)
}

// render 返回一行一个字符串，最后一行是地面
func (c *canvas) render(snap game.Snapshot) []string {
	cols, rows := c.size(snap)
	grid := make([][]byte, rows)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(" ", cols))
	}
	ground := rows - 1
	for x := range grid[ground] {
		grid[ground][x] = '_'
	}

	// 猫：最后一行贴地
	art := c.frames[[2]int{snap.Cat.Row, snap.Cat.Col}]
	if snap.Cat.Facing == components.FacingLeft {
		art = c.mirrored[[2]int{snap.Cat.Row, snap.Cat.Col}]
	}
	catCol := int(snap.Cat.X / c.pxPerCol)
	top := ground - len(art)
	for i, line := range art {
		c.blit(grid, top+i, catCol, line, true)
	}

	// 鱼画在猫上面
	for _, f := range snap.Fish {
		if f.Fade >= 0.5 {
			continue
		}
		row := ground - 1 - int(f.Y/c.pxPerRow)
		glyph := fishGlyph
		if f.Consumed {
			glyph = "~~~"
		}
		c.blit(grid, row, int(f.X/c.pxPerCol), glyph, false)
	}

	out := make([]string, rows)
	for i, line := range grid {
		out[i] = string(line)
	}
	return out
}

// blit 在 (row, col) 写入 s，越界部分裁掉；transparent 时空格不覆盖
func (c *canvas) blit(grid [][]byte, row, col int, s string, transparent bool) {
	if row < 0 || row >= len(grid) {
		return
	}
	line := grid[row]
	for i := 0; i < len(s); i++ {
		x := col + i
		if x < 0 || x >= len(line) {
			continue
		}
		if transparent && s[i] == ' ' {
			continue
		}
		line[x] = s[i]
	}
}

package app

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// pointerJustPressed 检查是否刚刚按下指针（触摸或鼠标左键）
// 优先检测触摸，返回是否按下以及按下位置（屏幕坐标）
func pointerJustPressed() (bool, int, int) {
	// 检查触摸
	touchIDs := inpututil.AppendJustPressedTouchIDs(nil)
	if len(touchIDs) > 0 {
		x, y := ebiten.TouchPosition(touchIDs[0])
		return true, x, y
	}

	// 检查鼠标
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return true, x, y
	}

	return false, 0, 0
}

// multiTouchJustPressed 检查是否刚刚有第二根手指按下
// 移动端没有键盘，用双指点击切换预设
func multiTouchJustPressed() bool {
	return len(inpututil.AppendJustPressedTouchIDs(nil)) > 0 && len(ebiten.AppendTouchIDs(nil)) >= 2
}

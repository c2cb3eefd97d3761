package solver

import (
	"fmt"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/cache"
)

// SpiralOrder returns the cells of a width x height board in the order the
// solver tries them: starting at the centre and spiraling outward. It is
// built by walking the board clockwise from the top-left corner, ring by ring
// towards the middle, and reversing the result.
func SpiralOrder(width, height int) []int {
	order := make([]int, 0, width*height)
	top, bottom, left, right := 0, height-1, 0, width-1
	for top <= bottom && left <= right {
		for c := left; c <= right; c++ {
			order = append(order, top*width+c)
		}
		for r := top + 1; r <= bottom; r++ {
			order = append(order, r*width+right)
		}
		if top < bottom {
			for c := right - 1; c >= left; c-- {
				order = append(order, bottom*width+c)
			}
		}
		if left < right {
			for r := bottom - 1; r > top; r-- {
				order = append(order, r*width+left)
			}
		}
		top++
		bottom--
		left++
		right--
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func searchOrder(shape board.Shape) ([]int, error) {
	key := fmt.Sprintf("searchorder:%dx%d", shape.Width, shape.Height)
	obj, err := cache.Load(key, func(string) (any, error) {
		return SpiralOrder(shape.Width, shape.Height), nil
	})
	if err != nil {
		return nil, err
	}
	return obj.([]int), nil
}

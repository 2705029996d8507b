package main

import (
	"fmt"
	"strconv"
	"strings"

	"bomb-vision/pkg/geometry"
)

// parseQuad parses eight comma separated numbers: x,y of the top-left,
// top-right, bottom-left and bottom-right corners.
func parseQuad(s string) (geometry.Quad, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 8 {
		return geometry.Quad{}, fmt.Errorf("quad needs 8 numbers, got %d", len(parts))
	}
	var v [8]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Quad{}, fmt.Errorf("quad value %d: %w", i, err)
		}
		v[i] = f
	}
	return geometry.NewQuad(
		geometry.Point2D{X: v[0], Y: v[1]},
		geometry.Point2D{X: v[2], Y: v[3]},
		geometry.Point2D{X: v[4], Y: v[5]},
		geometry.Point2D{X: v[6], Y: v[7]},
	), nil
}

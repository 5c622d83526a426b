package geometry

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// HittableList is an ordered collection of shapes tested linearly.
// It is built once and then only read, so it may be shared across workers.
type HittableList struct {
	Shapes []Shape
}

// NewHittableList creates a list holding the given shapes
func NewHittableList(shapes ...Shape) *HittableList {
	return &HittableList{Shapes: shapes}
}

// Add appends a shape to the list
func (l *HittableList) Add(shape Shape) {
	l.Shapes = append(l.Shapes, shape)
}

// Clear removes every shape
func (l *HittableList) Clear() {
	l.Shapes = nil
}

// Len returns the number of shapes in the list
func (l *HittableList) Len() int {
	return len(l.Shapes)
}

// Hit returns the closest intersection across all shapes.
// A later shape only displaces the current best if it is strictly closer,
// so exact ties go to the earlier shape.
func (l *HittableList) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	hitAnything := false
	closestSoFar := tMax

	for _, shape := range l.Shapes {
		hit, isHit := shape.Hit(ray, tMin, closestSoFar)
		if isHit && (!hitAnything || hit.T < closestSoFar) {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}

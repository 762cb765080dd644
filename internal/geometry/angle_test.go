package geometry

import (
	"math"
	"testing"
)

func TestAngleRightAngle(t *testing.T) {
	got := Angle(Point{X: 1, Y: 0}, Point{}, Point{X: 0, Y: 1})
	if math.Abs(got-90) > 1e-9 {
		t.Fatalf("expected 90, got %f", got)
	}
}

func TestAngleNormalizesNegative(t *testing.T) {
	got := Angle(Point{X: 0, Y: 1}, Point{}, Point{X: 1, Y: 0})
	if math.Abs(got-270) > 1e-9 {
		t.Fatalf("expected 270, got %f", got)
	}
	if got < 0 || got >= 360 {
		t.Fatalf("angle out of range: %f", got)
	}
}

func TestAngleStraightLine(t *testing.T) {
	got := Angle(Point{X: 0.5, Y: 0.2}, Point{X: 0.5, Y: 0.5}, Point{X: 0.5, Y: 0.8})
	if math.Abs(got-180) > 1e-9 {
		t.Fatalf("expected 180, got %f", got)
	}
}

func TestAngleDegenerateIsDeterministic(t *testing.T) {
	p := Point{X: 0.3, Y: 0.3}
	first := Angle(p, p, p)
	second := Angle(p, p, p)
	if first != second {
		t.Fatalf("expected deterministic result, got %f and %f", first, second)
	}
}

func TestInteriorFolds(t *testing.T) {
	got := Interior(Point{X: 0, Y: 1}, Point{}, Point{X: 1, Y: 0})
	if math.Abs(got-90) > 1e-9 {
		t.Fatalf("expected 90, got %f", got)
	}
}

func TestMidpoint(t *testing.T) {
	got := Midpoint(Point{X: 0.2, Y: 0.4}, Point{X: 0.4, Y: 0.8})
	if math.Abs(got.X-0.3) > 1e-9 || math.Abs(got.Y-0.6) > 1e-9 {
		t.Fatalf("unexpected midpoint: %+v", got)
	}
}

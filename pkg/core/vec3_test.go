package core

import (
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-9

func vecNear(a, b Vec3, tol float64) bool {
	return a.Subtract(b).Length() <= tol
}

func TestVec3_Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(10, 20, 30)

	tests := []struct {
		name     string
		got      Vec3
		expected Vec3
	}{
		{"add", v1.Add(v2), NewVec3(11, 22, 33)},
		{"subtract", v1.Subtract(v2), NewVec3(-9, -18, -27)},
		{"negate", v1.Negate(), NewVec3(-1, -2, -3)},
		{"multiply", v1.Multiply(2), NewVec3(2, 4, 6)},
		{"divide", v1.Divide(2), NewVec3(0.5, 1, 1.5)},
		{"multiply vec", v1.MultiplyVec(v2), NewVec3(10, 40, 90)},
		{"cross parallel", v1.Cross(v2), NewVec3(0, 0, 0)},
		{"cross axes", NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)), NewVec3(0, 0, 1)},
		{"lerp start", v1.Lerp(v2, 0), v1},
		{"lerp end", v1.Lerp(v2, 1), v2},
		{"clamp", NewVec3(-1, 0.5, 2).Clamp(0, 0.999), NewVec3(0, 0.5, 0.999)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !vecNear(tt.got, tt.expected, tolerance) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}

	if v1.Dot(v2) != 140 {
		t.Errorf("Expected dot product 140, got %f", v1.Dot(v2))
	}
	if v1.LengthSquared() != 14 {
		t.Errorf("Expected squared length 14, got %f", v1.LengthSquared())
	}
	if math.Abs(v1.Length()-math.Sqrt(14)) > tolerance {
		t.Errorf("Expected length %f, got %f", math.Sqrt(14), v1.Length())
	}
}

func TestVec3_NormalizeHasUnitLength(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := NewVec3(random.NormFloat64()*100, random.NormFloat64()*100, random.NormFloat64()*100)
		if v.LengthSquared() == 0 {
			continue
		}
		if length := v.Normalize().Length(); math.Abs(length-1) > 1e-12 {
			t.Fatalf("Normalize(%v) has length %f", v, length)
		}
	}
}

func TestVec3_NormalizeZeroIsNaN(t *testing.T) {
	n := NewVec3(0, 0, 0).Normalize()
	if !math.IsNaN(n.X) || !math.IsNaN(n.Y) || !math.IsNaN(n.Z) {
		t.Errorf("Expected NaN components for zero vector, got %v", n)
	}
}

func TestVec3_NearZero(t *testing.T) {
	tests := []struct {
		name     string
		v        Vec3
		expected bool
	}{
		{"zero", NewVec3(0, 0, 0), true},
		{"tiny", NewVec3(1e-9, -1e-9, 5e-9), true},
		{"one component at threshold", NewVec3(1e-8, 0, 0), false},
		{"normal vector", NewVec3(0, 1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.NearZero(); got != tt.expected {
				t.Errorf("NearZero(%v) = %t, want %t", tt.v, got, tt.expected)
			}
		})
	}
}

func TestReflect_SelfInverse(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	sampler := NewRandomSampler(random)
	for i := 0; i < 500; i++ {
		v := NewVec3(random.NormFloat64(), random.NormFloat64(), random.NormFloat64())
		n := RandomUnitVector(sampler)
		twice := Reflect(Reflect(v, n), n)
		if !vecNear(twice, v, 1e-9) {
			t.Fatalf("Reflect twice: expected %v, got %v (normal %v)", v, twice, n)
		}
	}
}

func TestReflect_Mirror(t *testing.T) {
	v := NewVec3(1, -1, 0)
	n := NewVec3(0, 1, 0)
	expected := NewVec3(1, 1, 0)
	if got := Reflect(v, n); !vecNear(got, expected, tolerance) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestRefract(t *testing.T) {
	n := NewVec3(0, 1, 0)

	t.Run("normal incidence passes straight through", func(t *testing.T) {
		got := Refract(NewVec3(0, -1, 0), n, 1.0/1.5)
		if !vecNear(got, NewVec3(0, -1, 0), tolerance) {
			t.Errorf("Expected straight refraction, got %v", got)
		}
	})

	t.Run("snell's law", func(t *testing.T) {
		uv := NewVec3(1, -1, 0).Normalize()
		eta := 1.0 / 1.5
		got := Refract(uv, n, eta)

		sinIn := math.Sqrt(0.5)
		sinOut := got.Normalize().X
		if math.Abs(sinOut-eta*sinIn) > 1e-9 {
			t.Errorf("Expected sin(out) = %f, got %f", eta*sinIn, sinOut)
		}
		if math.Abs(got.Length()-1) > 1e-9 {
			t.Errorf("Expected unit refracted vector, got length %f", got.Length())
		}
	})

	t.Run("grazing overshoot does not produce NaN", func(t *testing.T) {
		uv := NewVec3(1, -1e-9, 0).Normalize()
		got := Refract(uv, n, 1.0)
		if math.IsNaN(got.X) || math.IsNaN(got.Y) || math.IsNaN(got.Z) {
			t.Errorf("Expected finite refraction, got %v", got)
		}
	})
}

func TestVec3_GammaCorrect(t *testing.T) {
	got := NewVec3(0.25, 0.81, 1).GammaCorrect(2.0)
	expected := NewVec3(0.5, 0.9, 1)
	if !vecNear(got, expected, tolerance) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 2, 3), NewVec3(1, 1, 1))
	if got := ray.At(0); got != ray.Origin {
		t.Errorf("Expected origin at t=0, got %v", got)
	}
	if got := ray.At(64); got != NewVec3(65, 66, 67) {
		t.Errorf("Expected (65,66,67), got %v", got)
	}
}

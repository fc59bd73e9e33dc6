package daemon

import (
	"testing"

	"casenotify/internal/types"
)

func TestClampPillPosition(t *testing.T) {
	area := types.Rect{X: 0, Y: 0, Width: 1920, Height: 1040}
	size := types.Size{Width: 260, Height: 64}
	cases := []struct {
		name string
		in   types.PillPosition
		want types.PillPosition
	}{
		{name: "inside", in: types.PillPosition{X: 500, Y: 400}, want: types.PillPosition{X: 500, Y: 400}},
		{name: "far top left", in: types.PillPosition{X: -5000, Y: -5000}, want: types.PillPosition{X: 8, Y: 8}},
		{name: "far bottom right", in: types.PillPosition{X: 9000, Y: 9000}, want: types.PillPosition{X: 1652, Y: 968}},
		{name: "one axis", in: types.PillPosition{X: 100, Y: 2000}, want: types.PillPosition{X: 100, Y: 968}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampPillPosition(tc.in, size, area); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestClampPillPositionOffsetWorkArea(t *testing.T) {
	area := types.Rect{X: 1920, Y: 40, Width: 1280, Height: 984}
	got := ClampPillPosition(types.PillPosition{X: 0, Y: 0}, types.Size{Width: 380, Height: 460}, area)
	if got != (types.PillPosition{X: 1928, Y: 48}) {
		t.Fatalf("got %+v", got)
	}
}

func TestClampPillPositionOversizedSurface(t *testing.T) {
	area := types.Rect{Width: 200, Height: 100}
	got := ClampPillPosition(types.PillPosition{X: 50, Y: 50}, types.Size{Width: 380, Height: 460}, area)
	if got != (types.PillPosition{X: 8, Y: 8}) {
		t.Fatalf("got %+v", got)
	}
}

func TestResolvePillPosition(t *testing.T) {
	area := types.Rect{Width: 1920, Height: 1040}
	size := types.Size{Width: 260, Height: 64}
	if got := ResolvePillPosition(nil, size, area); got != (types.PillPosition{X: 1644, Y: 960}) {
		t.Fatalf("default = %+v", got)
	}
	saved := &types.PillPosition{X: 3000, Y: 10}
	if got := ResolvePillPosition(saved, size, area); got != (types.PillPosition{X: 1652, Y: 10}) {
		t.Fatalf("saved = %+v", got)
	}
}

func TestPrimaryWorkArea(t *testing.T) {
	fallback := types.Rect{Width: 1920, Height: 1040}
	second := types.Rect{X: 1920, Width: 1280, Height: 1024}
	primary := types.Rect{Width: 2560, Height: 1400}

	if got := primaryWorkArea(nil, fallback); got != fallback {
		t.Fatalf("no displays: %+v", got)
	}
	if got := primaryWorkArea([]types.Display{{WorkArea: second}, {Primary: true, WorkArea: primary}}, fallback); got != primary {
		t.Fatalf("primary: %+v", got)
	}
	if got := primaryWorkArea([]types.Display{{Primary: true}, {WorkArea: second}}, fallback); got != second {
		t.Fatalf("empty primary should be skipped: %+v", got)
	}
}

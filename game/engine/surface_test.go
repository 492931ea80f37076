package engine

import "testing"

func TestRecordingSurfaceFrames(t *testing.T) {
	r := NewRecordingSurface(100, 2)
	for i := 0; i < 3; i++ {
		r.ClearRect(0, 0, 100, 100)
		r.FillRect(i, 0, 10, 10, ColorBody)
	}
	r.FillText("hi", 1, 2, ColorText)

	if r.FrameCount() != 2 {
		t.Fatalf("Expected the limit to keep 2 frames, got %d", r.FrameCount())
	}
	last, _ := r.LastFrame()
	if len(last.Ops) != 3 || last.Ops[1].X != 2 {
		t.Errorf("Unexpected last frame %+v", last.Ops)
	}
	if texts := last.Texts(); len(texts) != 1 || texts[0] != "hi" {
		t.Errorf("Expected [hi], got %v", texts)
	}
}

func TestRecordingSurfaceFailOnce(t *testing.T) {
	r := NewRecordingSurface(100, 0)
	r.FailOn = OpText

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected an injected panic")
			}
		}()
		r.FillText("boom", 0, 0, ColorText)
	}()

	r.FillText("ok", 0, 0, ColorText)
	last, _ := r.LastFrame()
	if texts := last.Texts(); len(texts) != 1 || texts[0] != "ok" {
		t.Errorf("Expected only the second text, got %v", texts)
	}
}

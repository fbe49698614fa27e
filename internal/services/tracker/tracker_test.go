package tracker

import (
	"image"
	"testing"

	"linewatch-worker-go/internal/models"
)

func det(class string, cx, cy int) models.Detection {
	return models.Detection{Kind: models.KindTracked, Class: class, Box: image.Rect(cx-10, cy-10, cx+10, cy+10)}
}

func nativeDet(id, cx, cy int) models.Detection {
	d := det("person", cx, cy)
	d.TrackID = id
	d.HasTrackID = true
	return d
}

func TestGreedyReusesNearestSameClass(t *testing.T) {
	tr := New(100)

	first := tr.Update([]models.Detection{det("person", 100, 100), det("car", 400, 400)}, false)
	if first[0].ID != 1 || first[1].ID != 2 {
		t.Fatalf("first frame ids = %d,%d want 1,2", first[0].ID, first[1].ID)
	}
	if first[0].HasPrev {
		t.Error("new identity should have no previous center")
	}

	second := tr.Update([]models.Detection{det("person", 150, 100), det("car", 420, 400)}, false)
	if second[0].ID != 1 || second[1].ID != 2 {
		t.Fatalf("second frame ids = %d,%d want 1,2", second[0].ID, second[1].ID)
	}
	if !second[0].HasPrev || second[0].PrevCenter != image.Pt(100, 100) {
		t.Errorf("prev center = %v (has=%v)", second[0].PrevCenter, second[0].HasPrev)
	}
}

func TestGreedyRadiusIsStrict(t *testing.T) {
	tr := New(100)
	tr.Update([]models.Detection{det("person", 0, 0)}, false)

	// Exactly 100px away does not match.
	got := tr.Update([]models.Detection{det("person", 100, 0)}, false)
	if got[0].ID != 2 {
		t.Fatalf("id at radius = %d, want new id 2", got[0].ID)
	}
}

func TestGreedyIgnoresOtherClasses(t *testing.T) {
	tr := New(100)
	tr.Update([]models.Detection{det("car", 50, 50)}, false)

	got := tr.Update([]models.Detection{det("person", 55, 50)}, false)
	if got[0].ID != 2 {
		t.Fatalf("cross-class match: id = %d", got[0].ID)
	}
}

func TestGreedyFirstDetectionClaimsIdentity(t *testing.T) {
	tr := New(100)
	tr.Update([]models.Detection{det("person", 100, 100)}, false)

	got := tr.Update([]models.Detection{det("person", 120, 100), det("person", 110, 100)}, false)
	if got[0].ID != 1 {
		t.Errorf("first detection id = %d, want 1", got[0].ID)
	}
	if got[1].ID != 2 {
		t.Errorf("second detection id = %d, want fresh 2", got[1].ID)
	}
}

func TestGreedyIsDeterministic(t *testing.T) {
	seq := [][]models.Detection{
		{det("person", 10, 10), det("person", 300, 300)},
		{det("person", 30, 10), det("person", 310, 290)},
		{det("person", 60, 10)},
	}

	run := func() [][]int {
		tr := New(100)
		var ids [][]int
		for _, frame := range seq {
			var row []int
			for _, tk := range tr.Update(frame, false) {
				row = append(row, tk.ID)
			}
			ids = append(ids, row)
		}
		return ids
	}

	a, b := run(), run()
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("run mismatch at frame %d: %v vs %v", i, a, b)
			}
		}
	}
}

func TestNativeCarriesCountedAndDropsMissing(t *testing.T) {
	tr := New(100)
	tr.Update([]models.Detection{nativeDet(5, 10, 10), nativeDet(9, 200, 200)}, true)

	if !tr.SetCounted(5, true) {
		t.Fatal("SetCounted on live id returned false")
	}

	got := tr.Update([]models.Detection{nativeDet(5, 20, 10)}, true)
	if len(got) != 1 || !got[0].Counted || got[0].PrevCenter != image.Pt(10, 10) {
		t.Fatalf("carried track = %+v", got)
	}
	if _, ok := tr.Get(9); ok {
		t.Error("absent id 9 still tracked")
	}
}

func TestNativeSkipsUntrackedAndAuxiliary(t *testing.T) {
	tr := New(100)
	face := det("face", 50, 50)
	face.Kind = models.KindAuxiliary

	got := tr.Update([]models.Detection{det("person", 10, 10), face, nativeDet(3, 100, 100)}, true)
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("tracks = %+v", got)
	}
	if len(tr.Snapshot()) != 1 {
		t.Errorf("snapshot = %+v", tr.Snapshot())
	}
}

func TestNativeDuplicateIDKeepsFirstDetection(t *testing.T) {
	tr := New(100)
	tr.Update([]models.Detection{nativeDet(4, 10, 10)}, true)

	got := tr.Update([]models.Detection{nativeDet(4, 20, 10), nativeDet(4, 300, 300)}, true)
	if len(got) != 1 || got[0].Center != image.Pt(20, 10) {
		t.Fatalf("tracks = %+v", got)
	}
	stored, ok := tr.Get(4)
	if !ok || stored.Center != image.Pt(20, 10) || stored.PrevCenter != image.Pt(10, 10) {
		t.Errorf("stored track = %+v", stored)
	}
}

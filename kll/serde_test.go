package kll

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestSerdeRoundTripEmpty(t *testing.T) {
	s, _ := New[float32](DefaultK)
	blob, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Deserialize[float32](blob)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsEmpty() {
		t.Error("deserialized sketch should be empty")
	}
	if got.K() != DefaultK {
		t.Errorf("expected k=%d, got %d", DefaultK, got.K())
	}
}

func TestSerdeRoundTrip(t *testing.T) {
	s, _ := New[float32](DefaultK)
	for i := 0; i < 10000; i++ {
		s.Update(rand.Float32() * 100)
	}

	blob, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize[float32](blob)
	if err != nil {
		t.Fatal(err)
	}

	if got.GetN() != s.GetN() {
		t.Errorf("n: got %d, want %d", got.GetN(), s.GetN())
	}
	if got.GetNumRetained() != s.GetNumRetained() {
		t.Errorf("retained: got %d, want %d", got.GetNumRetained(), s.GetNumRetained())
	}
	wantMin, _ := s.GetMinItem()
	gotMin, _ := got.GetMinItem()
	if gotMin != wantMin {
		t.Errorf("min: got %v, want %v", gotMin, wantMin)
	}
	wantMax, _ := s.GetMaxItem()
	gotMax, _ := got.GetMaxItem()
	if gotMax != wantMax {
		t.Errorf("max: got %v, want %v", gotMax, wantMax)
	}
	for _, rank := range []float64{0, 0.25, 0.5, 0.75, 1} {
		want, _ := s.GetQuantile(rank)
		quantile, err := got.GetQuantile(rank)
		if err != nil {
			t.Fatal(err)
		}
		if quantile != want {
			t.Errorf("quantile(%v): got %v, want %v", rank, quantile, want)
		}
	}
	for _, v := range []float32{10, 50, 90} {
		want, _ := s.GetRank(v)
		rank, err := got.GetRank(v)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(rank-want) > 1e-12 {
			t.Errorf("rank(%v): got %v, want %v", v, rank, want)
		}
	}
}

func TestSerdeUpdatableAfterDeserialize(t *testing.T) {
	s, _ := New[float64](64)
	for i := 0; i < 1000; i++ {
		s.Update(float64(i))
	}
	blob, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize[float64](blob)
	if err != nil {
		t.Fatal(err)
	}

	got.Update(-1)
	if got.GetN() != 1001 {
		t.Errorf("expected n=1001 after update, got %d", got.GetN())
	}
	min, _ := got.GetMinItem()
	if min != -1 {
		t.Errorf("expected min=-1, got %v", min)
	}
}

func TestSerdeKindMismatch(t *testing.T) {
	s, _ := New[float32](DefaultK)
	s.Update(1)
	blob, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Deserialize[float64](blob); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestSerdeCorruption(t *testing.T) {
	s, _ := New[float32](DefaultK)
	for i := 0; i < 100; i++ {
		s.Update(float32(i))
	}
	blob, err := s.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Deserialize[float32](blob[:10]); err == nil {
		t.Error("expected error for truncated blob")
	}

	flipped := append([]byte(nil), blob...)
	flipped[25] ^= 0xff
	if _, err := Deserialize[float32](flipped); err != ErrChecksum {
		t.Errorf("expected ErrChecksum, got %v", err)
	}

	var empty []byte
	if _, err := Deserialize[float32](empty); err == nil {
		t.Error("expected error for empty blob")
	}
}

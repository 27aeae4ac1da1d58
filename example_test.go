package kllvec_test

import (
	"fmt"
	"log"

	"github.com/hupe1980/kllvec"
	"github.com/hupe1980/kllvec/matrix"
)

func Example() {
	// Three channels of a metric stream, e.g. latency, payload size
	// and queue depth.
	v, err := kllvec.New[float64](kllvec.DefaultK, 3)
	if err != nil {
		log.Fatal(err)
	}

	batch, err := matrix.FromRows([][]float64{
		{12.0, 512, 3},
		{15.5, 640, 1},
		{11.2, 256, 4},
		{19.8, 768, 2},
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := v.Update(batch); err != nil {
		log.Fatal(err)
	}

	medians, err := v.GetQuantiles([]float64{0.5}, kllvec.All())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(v.GetN())
	fmt.Println(medians.Row(0), medians.Row(1), medians.Row(2))
	// Output:
	// [4 4 4]
	// [12] [512] [2]
}

func ExampleVectorOfKLL_Collapse() {
	v, err := kllvec.New[float64](kllvec.DefaultK, 2)
	if err != nil {
		log.Fatal(err)
	}

	batch, err := matrix.FromRows([][]float64{{1, 10}, {2, 20}, {3, 30}})
	if err != nil {
		log.Fatal(err)
	}
	if err := v.Update(batch); err != nil {
		log.Fatal(err)
	}

	// Fold both channels into one sketch over all six values.
	combined, err := v.Collapse(kllvec.All())
	if err != nil {
		log.Fatal(err)
	}

	min, _ := combined.GetMinItem()
	max, _ := combined.GetMaxItem()
	fmt.Println(combined.GetN(), min, max)
	// Output:
	// 6 1 30
}

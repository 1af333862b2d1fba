package factorec_test

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/hupe1980/factorec"
	"github.com/hupe1980/factorec/catalog"
	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/model"
	"github.com/hupe1980/factorec/rescore"
)

// Example_blendedQuery scores a catalog against two users at once.
func Example_blendedQuery() {
	items := catalog.FromSlices(
		[]model.ItemID{10, 20},
		[][]float32{{2, 2}, {5, 0}},
	)
	queries := [][]float32{{1, 0}, {0, 1}}

	it, err := factorec.NewIterator(queries, items, exclusion.Empty)
	if err != nil {
		log.Fatal(err)
	}
	defer it.Stop()

	for it.Next() {
		fmt.Println(it.Candidate())
	}
	if err := it.Err(); err != nil {
		log.Fatal(err)
	}
	// Output:
	// Candidate(10:2)
	// Candidate(20:2.5)
}

// Example_rescorer drops an item by returning NaN from the rescorer.
func Example_rescorer() {
	items := catalog.FromSlices(
		[]model.ItemID{10, 20},
		[][]float32{{2, 2}, {5, 0}},
	)
	queries := [][]float32{{1, 0}, {0, 1}}

	veto := rescore.Funcs{Adjust: func(id model.ItemID, score float64) float64 {
		if id == 10 {
			return math.NaN()
		}
		return score
	}}

	it, err := factorec.NewIterator(queries, items, exclusion.Empty, factorec.WithRescorer(veto))
	if err != nil {
		log.Fatal(err)
	}

	for c, err := range it.All() {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(c.ID, c.Score)
	}
	// Output: 20 2.5
}

// ExampleTopN selects the best items over a partitioned catalog while
// skipping items the user already knows.
func ExampleTopN() {
	items, err := catalog.NewMatrix(2)
	if err != nil {
		log.Fatal(err)
	}
	for id, vec := range map[model.ItemID][]float32{
		1: {1, 0},
		2: {3, 1},
		3: {0, 4},
		4: {2, 2},
	} {
		if err := items.Set(id, vec); err != nil {
			log.Fatal(err)
		}
	}

	known := exclusion.NewSharedSet(3)

	results, err := factorec.TopN(context.Background(), [][]float32{{1, 1}}, items.Partitions(2), exclusion.Empty, 2,
		factorec.WithHardExclusions(known))
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range results {
		fmt.Println(c.ID, c.Score)
	}
	// Output:
	// 2 4
	// 4 4
}

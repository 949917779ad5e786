package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/paulmach/orb"

	"github.com/kass/go-polygon-index/pkg/index"
	"github.com/kass/go-polygon-index/pkg/models"
)

func main() {
	var (
		indexFile  = flag.String("i", "polygon_index.json", "Index file path")
		x          = flag.Float64("x", 0, "Query point X")
		y          = flag.Float64("y", 0, "Query point Y")
		all        = flag.Bool("all", false, "Report every containing region, not just the nearest candidate")
		outputJSON = flag.Bool("json", false, "Output results as JSON")
	)
	flag.Parse()

	log.Printf("Loading index from %s...\n", *indexFile)
	idx := index.New()
	if err := idx.LoadFile(*indexFile); err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	log.Printf("Index loaded with %d regions\n", idx.Size())

	point := orb.Point{*x, *y}
	var results []*models.Record
	if *all {
		for rec := range idx.Covering(point) {
			results = append(results, rec)
		}
	} else {
		for rec := range idx.Nearest(point) {
			results = append(results, rec)
		}
	}
	log.Printf("Found %d containing region(s)\n", len(results))

	if *outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			log.Fatalf("Failed to encode results: %v", err)
		}
		return
	}
	for i, rec := range results {
		fmt.Printf("%d. %s (%d boundary points)\n", i+1, rec.Key, len(rec.Polygon))
	}
}

package main

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/kass/go-polygon-index/pkg/index"
	"github.com/kass/go-polygon-index/pkg/models"
)

func main() {
	idx := index.New()

	// A few rectangular districts on a simple planar grid.
	districts := []*models.Record{
		{
			Key:     "harbor.geojson",
			Polygon: orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}},
			Meta:    map[string]any{"name": "Harbor", "zone": "industrial"},
		},
		{
			Key:     "old-town.geojson",
			Polygon: orb.Ring{{8, 8}, {8, 20}, {22, 20}, {22, 8}},
			Meta:    map[string]any{"name": "Old Town", "zone": "residential"},
		},
		{
			Key:     "airport.geojson",
			Polygon: orb.Ring{{40, 40}, {40, 55}, {60, 55}, {60, 40}},
			Meta:    map[string]any{"name": "Airport", "zone": "transport"},
		},
	}

	for _, d := range districts {
		if err := idx.Insert(d); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("Indexed %d districts\n\n", idx.Size())

	// Example 1: which district contains this point?
	fmt.Println("=== Point lookup (9, 9) ===")
	for rec := range idx.Covering(orb.Point{9, 9}) {
		fmt.Printf("  - %s (%v)\n", rec.Key, rec.Meta["name"])
	}

	// Example 2: clip everything against a survey rectangle.
	fmt.Println("\n=== Clip against survey area (5,5)-(25,25) ===")
	survey := orb.Ring{{5, 5}, {5, 25}, {25, 25}, {25, 5}}
	clipped, err := idx.Intersect(survey)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Survey area touches %d districts:\n", clipped.Size())
	for rec := range clipped.Iterate() {
		fmt.Printf("  - %s clipped to %d boundary points\n", rec.Key, len(rec.Polygon))
	}

	// Example 3: filter by metadata.
	fmt.Println("\n=== Residential districts only ===")
	residential := idx.Filter(func(rec *models.Record) bool {
		return rec.Meta["zone"] == "residential"
	})
	for key := range residential.Keys() {
		fmt.Printf("  - %s\n", key)
	}

	// Save and reload.
	fmt.Println("\n=== Persistence round trip ===")
	if err := idx.SaveFile("districts.json"); err != nil {
		log.Fatal(err)
	}
	fresh := index.New()
	if err := fresh.LoadFile("districts.json"); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Reloaded index with %d districts\n", fresh.Size())
}

package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/kass/go-polygon-index/pkg/index"
	"github.com/kass/go-polygon-index/pkg/models"
	"github.com/kass/go-polygon-index/pkg/postgis"
)

var (
	indexFile string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "go-polygon-index",
	Short: "R-Tree backed polygon file index",
	Long:  `A spatial index associating unique file keys with polygon regions, with containment and intersection queries accelerated by an R-Tree.`,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load random polygon regions into the index",
	Long:  `Generate random rectangular regions, index them and save the index to disk.`,
	Run:   runLoad,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find regions containing a point",
	Long:  `Load the index and report the regions containing the given point.`,
	Run:   runQuery,
}

var intersectCmd = &cobra.Command{
	Use:   "intersect",
	Short: "Clip the index against a rectangle",
	Long:  `Load the index, intersect every region with the given rectangle and report (optionally save) the clipped result.`,
	Run:   runIntersect,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print index statistics",
	Run:   runInfo,
}

var pgloadCmd = &cobra.Command{
	Use:   "pgload",
	Short: "Load regions from a PostGIS table",
	Long:  `Read polygon regions from the polygon_regions PostGIS table into the index and save it to disk.`,
	Run:   runPgLoad,
}

var (
	numRegions int
	seed       int64
	minX       float64
	minY       float64
	maxX       float64
	maxY       float64
	queryX     float64
	queryY     float64
	allMatches bool
	outFile    string

	pgHost     string
	pgPort     int
	pgUser     string
	pgPassword string
	pgDatabase string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&indexFile, "file", "f", "polygon_index.json", "Index file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	loadCmd.Flags().IntVarP(&numRegions, "regions", "n", 10000, "Number of regions to generate")
	loadCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	loadCmd.Flags().Float64Var(&minX, "min-x", -125.0, "Minimum X of the generation area")
	loadCmd.Flags().Float64Var(&maxX, "max-x", -66.0, "Maximum X of the generation area")
	loadCmd.Flags().Float64Var(&minY, "min-y", 25.0, "Minimum Y of the generation area")
	loadCmd.Flags().Float64Var(&maxY, "max-y", 49.0, "Maximum Y of the generation area")

	queryCmd.Flags().Float64VarP(&queryX, "x", "x", 0, "Query point X")
	queryCmd.Flags().Float64VarP(&queryY, "y", "y", 0, "Query point Y")
	queryCmd.Flags().BoolVar(&allMatches, "all", false, "Report every containing region, not just the nearest candidate")

	intersectCmd.Flags().Float64Var(&minX, "min-x", 0, "Minimum X of the clip rectangle")
	intersectCmd.Flags().Float64Var(&maxX, "max-x", 0, "Maximum X of the clip rectangle")
	intersectCmd.Flags().Float64Var(&minY, "min-y", 0, "Minimum Y of the clip rectangle")
	intersectCmd.Flags().Float64Var(&maxY, "max-y", 0, "Maximum Y of the clip rectangle")
	intersectCmd.Flags().StringVarP(&outFile, "out", "o", "", "Save the clipped index to this file")

	pgloadCmd.Flags().StringVar(&pgHost, "pg-host", "localhost", "PostGIS host")
	pgloadCmd.Flags().IntVar(&pgPort, "pg-port", 5432, "PostGIS port")
	pgloadCmd.Flags().StringVar(&pgUser, "pg-user", "postgres", "PostGIS user")
	pgloadCmd.Flags().StringVar(&pgPassword, "pg-password", "", "PostGIS password")
	pgloadCmd.Flags().StringVar(&pgDatabase, "pg-database", "geodb", "PostGIS database")

	rootCmd.AddCommand(loadCmd, queryCmd, intersectCmd, infoCmd, pgloadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runLoad(cmd *cobra.Command, args []string) {
	fmt.Printf("Generating %d random regions...\n", numRegions)

	records := generateRandomRegions(numRegions, seed)

	idx := index.New()
	start := time.Now()
	for _, rec := range records {
		if err := idx.Insert(rec); err != nil {
			log.Fatalf("Failed to insert region %s: %v", rec.Key, err)
		}
	}
	loadTime := time.Since(start)

	fmt.Printf("Indexed %d regions in %v\n", idx.Size(), loadTime)
	fmt.Printf("Regions per second: %.0f\n", float64(idx.Size())/loadTime.Seconds())

	if err := idx.SaveFile(indexFile); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}
	fmt.Printf("Index saved to %s\n", indexFile)
}

func runQuery(cmd *cobra.Command, args []string) {
	idx := loadIndex()

	point := orb.Point{queryX, queryY}
	var matches []*models.Record
	if allMatches {
		for rec := range idx.Covering(point) {
			matches = append(matches, rec)
		}
	} else {
		for rec := range idx.Nearest(point) {
			matches = append(matches, rec)
		}
	}

	if len(matches) == 0 {
		fmt.Printf("No region contains (%.6f, %.6f)\n", queryX, queryY)
		return
	}
	fmt.Printf("Found %d region(s) containing (%.6f, %.6f):\n", len(matches), queryX, queryY)
	for i, rec := range matches {
		fmt.Printf("%d. %s (%d boundary points)\n", i+1, rec.Key, len(rec.Polygon))
		if verbose {
			for field, value := range rec.Meta {
				fmt.Printf("   %s: %v\n", field, value)
			}
		}
	}
}

func runIntersect(cmd *cobra.Command, args []string) {
	if minX >= maxX || minY >= maxY {
		log.Fatal("Intersect requires --min-x < --max-x and --min-y < --max-y")
	}
	idx := loadIndex()

	clip := orb.Ring{
		{minX, minY}, {minX, maxY}, {maxX, maxY}, {maxX, minY}, {minX, minY},
	}

	start := time.Now()
	result, err := idx.Intersect(clip)
	if err != nil {
		log.Fatalf("Intersect failed: %v", err)
	}
	fmt.Printf("Clipped %d regions down to %d in %v\n", idx.Size(), result.Size(), time.Since(start))

	if verbose {
		for key := range result.Keys() {
			fmt.Printf("  - %s\n", key)
		}
	}

	if outFile != "" {
		if err := result.SaveFile(outFile); err != nil {
			log.Fatalf("Failed to save clipped index: %v", err)
		}
		fmt.Printf("Clipped index saved to %s\n", outFile)
	}
}

func runInfo(cmd *cobra.Command, args []string) {
	idx := loadIndex()

	fmt.Printf("Regions: %d\n", idx.Size())
	if bound, ok := idx.Bound(); ok {
		fmt.Printf("Bounds: x[%.6f, %.6f] y[%.6f, %.6f]\n",
			bound.Min[0], bound.Max[0], bound.Min[1], bound.Max[1])
	}
	if verbose {
		for key := range idx.Keys() {
			fmt.Printf("  - %s\n", key)
		}
	}
}

func runPgLoad(cmd *cobra.Command, args []string) {
	store, err := postgis.NewStore(pgHost, pgUser, pgPassword, pgDatabase, pgPort)
	if err != nil {
		log.Fatalf("Failed to connect to PostGIS: %v", err)
	}
	defer store.Close()

	idx := index.New()
	start := time.Now()
	loaded, err := store.LoadIndex(idx)
	if err != nil {
		log.Fatalf("Failed to load regions: %v", err)
	}
	fmt.Printf("Loaded %d regions from PostGIS in %v\n", loaded, time.Since(start))

	if err := idx.SaveFile(indexFile); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}
	fmt.Printf("Index saved to %s\n", indexFile)
}

func loadIndex() *index.Index {
	log.Printf("Loading index from %s...", indexFile)
	idx := index.New()
	if err := idx.LoadFile(indexFile); err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	log.Printf("Index loaded with %d regions", idx.Size())
	return idx
}

func generateRandomRegions(n int, seed int64) []*models.Record {
	r := rand.New(rand.NewSource(seed))
	records := make([]*models.Record, n)

	spanX := maxX - minX
	spanY := maxY - minY

	for i := 0; i < n; i++ {
		// random rectangle, 0.01 to 0.5 units per side
		w := r.Float64()*0.49 + 0.01
		h := r.Float64()*0.49 + 0.01
		x := minX + r.Float64()*(spanX-w)
		y := minY + r.Float64()*(spanY-h)

		records[i] = &models.Record{
			Key: fmt.Sprintf("region_%d", i),
			Polygon: orb.Ring{
				{x, y}, {x, y + h}, {x + w, y + h}, {x + w, y}, {x, y},
			},
			Meta: map[string]any{"seq": i},
		}
	}
	return records
}

// mkfixture writes the representative catalog and NADAC fixtures as Parquet.
// With --check it reads existing files back and prints what the adapters make
// of them.
// Usage: go run ./cmd/mkfixture --out-dir testdata
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gyeh/rx340b/internal/catalog"
	"github.com/gyeh/rx340b/internal/fixture"
	"github.com/gyeh/rx340b/internal/risk"
)

func main() {
	outDir := flag.String("out-dir", "testdata", "output directory")
	checkOnly := flag.Bool("check", false, "only print stats for existing fixtures, don't write")
	flag.Parse()

	catalogPath := filepath.Join(*outDir, "catalog.parquet")
	nadacPath := filepath.Join(*outDir, "nadac.parquet")

	if !*checkOnly {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
			os.Exit(1)
		}
		if err := fixture.WriteParquet(catalogPath, fixture.Catalog()); err != nil {
			fmt.Fprintf(os.Stderr, "write catalog: %v\n", err)
			os.Exit(1)
		}
		if err := fixture.WriteParquet(nadacPath, fixture.NADAC()); err != nil {
			fmt.Fprintf(os.Stderr, "write nadac: %v\n", err)
			os.Exit(1)
		}
	}

	res, err := catalog.Load(catalogPath, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "read catalog: %v\n", err)
		os.Exit(1)
	}
	records, err := catalog.LoadNADAC(nadacPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read nadac: %v\n", err)
		os.Exit(1)
	}

	var medical int
	for _, d := range res.Drugs {
		if d.HasMedicalPath() {
			medical++
		}
	}
	sum := risk.SummarizePenny(records)

	fmt.Printf("%s: %d rows, %d drugs (%d with a medical path), %d rejected\n",
		catalogPath, res.RowsRead, len(res.Drugs), medical, len(res.Rejected))
	for _, re := range res.Rejected {
		fmt.Printf("  %s\n", re.Error())
	}
	fmt.Printf("%s: %d records, %d penny priced\n", nadacPath, sum.Total, sum.Flagged)
}

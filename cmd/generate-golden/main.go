// Command generate-golden writes the golden file used by the machin package
// tests. Results come from the math/big reference calculator, which shares
// no arithmetic with the block-wise kernel.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agbru/machin/internal/limb"
	"github.com/agbru/machin/internal/machin"
)

// GoldenTerm is one multiplier/argument pair of a golden case.
type GoldenTerm struct {
	Multiplier uint32 `json:"multiplier"`
	Argument   uint32 `json:"argument"`
}

// GoldenData represents a single test case in the golden file.
type GoldenData struct {
	Name        string       `json:"name"`
	Precision   int          `json:"precision"`
	Scale       uint64       `json:"scale"`
	Terms       []GoldenTerm `json:"terms"`
	BlockWidth  int          `json:"block_width"`
	BlockHeight int          `json:"block_height"`
	Result      string       `json:"result"`
}

func pairs(p ...uint32) []GoldenTerm {
	terms := make([]GoldenTerm, 0, len(p)/2)
	for i := 0; i+1 < len(p); i += 2 {
		terms = append(terms, GoldenTerm{Multiplier: p[i], Argument: p[i+1]})
	}
	return terms
}

func main() {
	outputDir := flag.String("out", "internal/machin/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	cases := []GoldenData{
		{Name: "pi-default", Precision: 17, Scale: 4, Terms: pairs(5, 7, 4, 68, 2, 117), BlockWidth: 64, BlockHeight: 64},
		{Name: "pi-default-narrow", Precision: 10, Scale: 4, Terms: pairs(5, 7, 4, 68, 2, 117), BlockWidth: 4, BlockHeight: 3},
		{Name: "arccot2", Precision: 3, Scale: 1, Terms: pairs(1, 2), BlockWidth: 64, BlockHeight: 64},
		{Name: "pi-euler", Precision: 5, Scale: 4, Terms: pairs(1, 2, 1, 3), BlockWidth: 8, BlockHeight: 5},
		{Name: "pi-stormer", Precision: 20, Scale: 4, Terms: pairs(6, 8, 2, 57, 1, 239), BlockWidth: 16, BlockHeight: 32},
		{Name: "three-halves-pi", Precision: 2, Scale: 6, Terms: pairs(1, 2, 1, 3), BlockWidth: 2, BlockHeight: 2},
		{Name: "arccot-argmax", Precision: 4, Scale: 1, Terms: pairs(1, uint32(limb.ArgMax)), BlockWidth: 4, BlockHeight: 64},
		{Name: "zero-multiplier", Precision: 2, Scale: 9, Terms: pairs(0, 5), BlockWidth: 2, BlockHeight: 7},
	}

	oracle := machin.NewCalculator(&machin.ReferenceCalculator{})
	ctx := context.Background()

	fmt.Println("Generating golden data...")
	for i := range cases {
		c := &cases[i]
		p := machin.Params{Precision: c.Precision, Scale: c.Scale}
		for _, t := range c.Terms {
			p.Terms = append(p.Terms, machin.Term{Multiplier: t.Multiplier, Argument: t.Argument})
		}
		digits, err := oracle.Calculate(ctx, nil, 0, p, machin.Options{BlockWidth: c.BlockWidth, BlockHeight: c.BlockHeight})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error evaluating %s: %v\n", c.Name, err)
			os.Exit(1)
		}
		c.Result = digits.String()
		fmt.Printf("Generated %s (%d digits)\n", c.Name, digits.Len())
	}

	filename := filepath.Join(*outputDir, "machin_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cases); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/specvital/each/pkg/fixture"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/plan.go <pattern>...\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	result, err := fixture.Glob(ctx, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "glob error: %v\n", err)
		os.Exit(1)
	}

	caseCount := 0
	statuses := make(map[string]int)
	for _, tbl := range result.Tables {
		plan, err := tbl.Plan("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan error: %v\n", err)
			os.Exit(1)
		}
		caseCount += plan.Count()
		for _, reg := range plan.Registrations {
			statuses[string(reg.Status)]++
		}
	}

	output := map[string]interface{}{
		"fixturesLoaded": len(result.Tables),
		"fixturesFailed": len(result.Errors),
		"caseCount":      caseCount,
		"duration":       time.Since(start).String(),
		"statuses":       statuses,
	}
	json.NewEncoder(os.Stdout).Encode(output)
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// forbidden maps a package prefix to import prefixes it must never reach.
// The rules encode the layering: combat and ability stay pure, world never
// sees the transport, and nothing below game imports game. The wire types in
// internal/net/proto are a shared leaf and exempt everywhere.
var forbidden = map[string][]string{
	"siegefall/server/internal/combat": {
		"siegefall/server/internal/world",
		"siegefall/server/internal/net",
		"siegefall/server/internal/game",
	},
	"siegefall/server/internal/ability": {
		"siegefall/server/internal/world",
		"siegefall/server/internal/net",
		"siegefall/server/internal/game",
	},
	"siegefall/server/internal/world": {
		"siegefall/server/internal/net",
		"siegefall/server/internal/game",
		"siegefall/server/internal/skill",
		"siegefall/server/internal/creep",
	},
	"siegefall/server/internal/skill": {
		"siegefall/server/internal/net",
		"siegefall/server/internal/game",
	},
	"siegefall/server/internal/creep": {
		"siegefall/server/internal/net",
		"siegefall/server/internal/game",
	},
	"siegefall/server/internal/net": {
		"siegefall/server/internal/game",
		"siegefall/server/internal/world",
	},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}

		for prefix, banned := range forbidden {
			if !strings.HasPrefix(pkg.ImportPath, prefix) {
				continue
			}
			for _, imp := range pkg.Imports {
				if strings.HasPrefix(imp, "siegefall/server/internal/net/proto") {
					continue
				}
				for _, ban := range banned {
					if strings.HasPrefix(imp, ban) {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

// vmaptool is a CLI utility for inspecting extracted collision/navigation
// map data: tile spawn files, tile index files, world model geometry and
// terrain height/hole files.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/wowemu/vmapview/internal/config"
	"github.com/wowemu/vmapview/internal/logger"
	"github.com/wowemu/vmapview/internal/store"
	"github.com/wowemu/vmapview/internal/world"
	"github.com/wowemu/vmapview/pkg/vmap"
)

func main() {
	var cfg *config.Config

	app := &cli.App{
		Name:  "vmaptool",
		Usage: "inspect vmap tile, model and terrain files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load(c.String("config"))
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if c.Bool("verbose") {
				level = "debug"
			}
			return logger.Init(level, cfg.Logging.LogFile)
		},
		After: func(*cli.Context) error {
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "tile",
				Usage:     "summarize a tile spawn file",
				ArgsUsage: "<file.vmtile>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "spawns", Usage: "list every spawn record"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("need a tile file", 1)
					}
					return cmdTile(c.Args().Get(0), c.Bool("spawns"))
				},
			},
			{
				Name:      "index",
				Usage:     "summarize a tile index file",
				ArgsUsage: "<file.vmtidx>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("need a tile index file", 1)
					}
					return cmdIndex(c.Args().Get(0))
				},
			},
			{
				Name:      "model",
				Usage:     "summarize a world model file",
				ArgsUsage: "<file.vmo>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("need a model file", 1)
					}
					return cmdModel(c.Args().Get(0))
				},
			},
			{
				Name:      "terrain",
				Usage:     "summarize a terrain height/hole file",
				ArgsUsage: "<file.map>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("need a terrain file", 1)
					}
					return cmdTerrain(c.Args().Get(0))
				},
			},
			{
				Name:      "probe",
				Usage:     "load a full tile through the data directories",
				ArgsUsage: "<mapID> <x> <y>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "vmaps", Usage: "vmap data directory (overrides config)"},
					&cli.StringFlag{Name: "maps", Usage: "terrain data directory (overrides config)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 3 {
						return cli.Exit("need mapID, x and y", 1)
					}
					vmapDir := cfg.Data.VmapDir
					mapDir := cfg.Data.MapDir
					if d := c.String("vmaps"); d != "" {
						vmapDir = d
					}
					if d := c.String("maps"); d != "" {
						mapDir = d
					}
					return cmdProbe(vmapDir, mapDir, cfg.Data.ModelCacheSize, c.Args().Slice())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdTile(path string, listSpawns bool) error {
	tile, err := vmap.ParseTileFile(path)
	if err != nil {
		return err
	}

	bound, parent, pathOnly := tile.CountByFlag()
	fmt.Printf("File:     %s\n", path)
	fmt.Printf("Magic:    %s\n", tile.Magic)
	fmt.Printf("Spawns:   %d (%d bounded, %d parent, %d path-only)\n",
		len(tile.Spawns), bound, parent, pathOnly)
	fmt.Printf("Models:   %d distinct\n", len(tile.ModelNames()))

	if listSpawns {
		fmt.Println()
		for i := range tile.Spawns {
			s := &tile.Spawns[i]
			fmt.Printf("  [%4d] id=%-6d adt=%-3d scale=%-6.3f pos=(%.1f, %.1f, %.1f) %s\n",
				i, s.ID, s.AdtID, s.Scale, s.Position.X, s.Position.Y, s.Position.Z, s.Name)
		}
	}
	return nil
}

func cmdIndex(path string) error {
	idx, err := vmap.ParseTileIndexFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:    %s\n", path)
	fmt.Printf("Magic:   %s\n", idx.Magic)
	fmt.Printf("Entries: %d\n", len(idx.NodeIndices))
	return nil
}

func cmdModel(path string) error {
	model, err := vmap.ParseWorldModelFile(path)
	if err != nil {
		return err
	}

	kind := "WMO"
	if model.IsM2() {
		kind = "M2"
	}
	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Kind:      %s (flags %#x)\n", kind, model.Flags)
	fmt.Printf("Root ID:   %d\n", model.RootID)
	fmt.Printf("Groups:    %d\n", len(model.Groups))
	fmt.Printf("Vertices:  %d\n", model.VertexCount())
	fmt.Printf("Triangles: %d\n", model.TriangleCount())

	for i := range model.Groups {
		g := &model.Groups[i]
		fmt.Printf("  group %d: id=%d verts=%d tris=%d\n",
			i, g.GroupID, len(g.Vertices), g.TriangleCount())
	}
	return nil
}

func cmdTerrain(path string) error {
	terrain, err := vmap.ParseTerrainFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:   %s\n", path)
	fmt.Printf("Build:  %d\n", terrain.BuildID)
	if terrain.HasHeightData || terrain.GridHeight != terrain.GridMaxHeight {
		min, max := terrain.HeightRange()
		fmt.Printf("Height: %.1f .. %.1f\n", min, max)
	} else {
		fmt.Println("Height: no data")
	}
	if terrain.HasHoles {
		fmt.Printf("Holes:  %d cells\n", terrain.HoleCount())
	} else {
		fmt.Println("Holes:  none")
	}
	return nil
}

func cmdProbe(vmapDir, mapDir string, cacheSize int, args []string) error {
	mapID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad map id %q", args[0])
	}
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad tile x %q", args[1])
	}
	y, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad tile y %q", args[2])
	}

	st, err := store.Open(vmapDir, mapDir)
	if err != nil {
		return err
	}
	mgr := world.NewManager(st, cacheSize)

	tile, err := mgr.LoadTile(mapID, x, y)
	if err != nil {
		return err
	}
	models := mgr.TileModels(tile)

	fmt.Printf("Tile:     %d [%d, %d]\n", mapID, x, y)
	fmt.Printf("Spawns:   %d\n", len(tile.Spawns))
	fmt.Printf("Models:   %d loaded\n", len(models))
	if tile.Terrain != nil {
		min, max := tile.Terrain.HeightRange()
		walkable := world.WalkableMask(tile.Terrain).Count()
		fmt.Printf("Terrain:  height %.1f .. %.1f, %d holes, %d walkable cells\n",
			min, max, tile.Terrain.HoleCount(), walkable)
	} else {
		fmt.Println("Terrain:  no map file")
	}
	return nil
}

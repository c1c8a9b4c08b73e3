// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"qbsp/bsp"
	"qbsp/conlog"
	"qbsp/qmap"
	"qbsp/settings"
)

var (
	compileProfile  string
	compileEpsilon  float32
	compileExtent   float32
	compileMaxEdges int
	compileTJunc    string
	compileTransWat bool
	compileTransSky bool
	compileThreads  int
)

var compileCmd = &cobra.Command{
	Use:   "compile <mapfile>",
	Short: "Compile a .map file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := settings.Default()
		if compileProfile != "" {
			var err error
			opts, err = settings.Load(compileProfile)
			if err != nil {
				return errors.Wrap(err, "load settings")
			}
		}
		if cmd.Flags().Changed("epsilon") {
			opts.Epsilon = compileEpsilon
		}
		if cmd.Flags().Changed("worldextent") {
			opts.WorldExtent = compileExtent
		}
		if cmd.Flags().Changed("maxedges") {
			opts.MaxEdges = compileMaxEdges
		}
		if cmd.Flags().Changed("tjunc") {
			level, err := settings.ParseTJuncLevel(compileTJunc)
			if err != nil {
				return err
			}
			opts.TJunc = level
		}
		if cmd.Flags().Changed("transwater") {
			opts.TransWater = compileTransWat
		}
		if cmd.Flags().Changed("transsky") {
			opts.TransSky = compileTransSky
		}
		if cmd.Flags().Changed("threads") {
			opts.Threads = compileThreads
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		return runCompile(args[0], &opts)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
	f := compileCmd.Flags()
	f.StringVarP(&compileProfile, "settings", "s", "", "YAML settings profile")
	f.Float32Var(&compileEpsilon, "epsilon", 0.1, "portal clip epsilon")
	f.Float32Var(&compileExtent, "worldextent", 8192, "half extent of the world")
	f.IntVar(&compileMaxEdges, "maxedges", 32, "max edges per face, 0 for unlimited")
	f.StringVar(&compileTJunc, "tjunc", "rotate", "tjunc level (none/rotate/retopologize/mwt)")
	f.BoolVar(&compileTransWat, "transwater", false, "compute vis through water")
	f.BoolVar(&compileTransSky, "transsky", false, "compute vis through sky")
	f.IntVar(&compileThreads, "threads", 0, "worker threads, 0 for all cpus")
}

func runCompile(path string, opts *settings.Options) error {
	runID := uuid.New()
	conlog.Printf("---- qbsp / run %s ----\n", runID)

	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read map")
	}

	d := qmap.NewData(&qmap.Quake2Game{})
	if err := qmap.LoadMap(d, string(src), opts.WorldExtent); err != nil {
		return errors.Wrap(err, "parse map")
	}
	conlog.Statf("%5d entities", len(d.Entities))
	conlog.Statf("%5d planes", d.Planes.Len())

	start := time.Now()
	trees, err := bsp.Compile(d, opts)
	if err != nil {
		return err
	}

	conlog.Printf("compiled %d models in %v\n", len(trees), time.Since(start).Round(time.Millisecond))
	return nil
}

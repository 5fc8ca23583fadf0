package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreiashu/venuebed"
)

func createDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe [pool]",
		Short: "Collapse duplicate records, best record first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := loadPool(args[0])
			if err != nil {
				return err
			}
			return writeVenues(cmd.OutOrStdout(), state.engine.Deduplicate(pool))
		},
	}
}

func createOverridesCmd() *cobra.Command {
	var blocklist []string
	cmd := &cobra.Command{
		Use:   "overrides [pool]",
		Short: "Drop closed venues and legacy conflicts, deduplicate and sort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := loadPool(args[0])
			if err != nil {
				return err
			}
			return writeVenues(cmd.OutOrStdout(), state.engine.ApplyOverrides(pool, blocked(blocklist)))
		},
	}
	cmd.Flags().StringSliceVar(&blocklist, "blocklist", nil, "extra venue names to treat as closed")
	return cmd
}

func createClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [pool]",
		Short: "Print the region of every venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := loadPool(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tREGION")
			for _, v := range pool {
				region := "-"
				if r, ok := state.engine.RegionFor(v); ok {
					region = r.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.ID, v.Name, region)
			}
			return w.Flush()
		},
	}
}

func createRankCmd() *cobra.Command {
	var (
		fallbackPath string
		regionName   string
		suggest      bool
		timeout      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "rank [pool]",
		Short: "Build the per-region top lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			only := venuebed.RegionAll
			if regionName != "" {
				r, err := venuebed.ParseRegion(regionName)
				if err != nil {
					return err
				}
				only = r
			}

			raw, err := loadPool(args[0])
			if err != nil {
				return err
			}
			e := state.engine
			pool := e.ApplyOverrides(raw, blocked(nil))
			fallback := pool
			if fallbackPath != "" {
				fb, err := loadPool(fallbackPath)
				if err != nil {
					return err
				}
				fallback = e.ApplyOverrides(fb, blocked(nil))
			}
			curated := e.Tables().Curated

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			refresher := venuebed.NewRefresher(e, nil)
			defer refresher.Close()
			lists, err := refresher.Request(venuebed.Snapshot{
				Key:      args[0],
				Version:  1,
				Pool:     pool,
				Fallback: fallback,
				Curated:  curated,
			}).Wait(ctx)
			if err != nil {
				return fmt.Errorf("ranking: %w", err)
			}

			out := cmd.OutOrStdout()
			regions := append(venuebed.NamedRegions(), venuebed.RegionAll)
			for _, r := range regions {
				if only != venuebed.RegionAll && r != only {
					continue
				}
				fmt.Fprintf(out, "== %s ==\n", r.DisplayName())
				if err := writeVenues(out, lists.For(r)); err != nil {
					return err
				}
			}

			if suggest {
				return writeSuggestions(out, e.SuggestCuratedNames(pool, curated))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fallbackPath, "fallback", "", "pool file used to pad short regions (default: the ranked pool)")
	cmd.Flags().StringVar(&regionName, "region", "", "print only this region")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "report curated names with no match and their closest spelling")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up ranking after this long")
	return cmd
}

func createSliceCmd() *cobra.Command {
	var vp venuebed.Viewport
	cmd := &cobra.Command{
		Use:   "slice [pool]",
		Short: "Print the venues visible in a map viewport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := loadPool(args[0])
			if err != nil {
				return err
			}
			pool := state.engine.ApplyOverrides(raw, blocked(nil))
			cache := venuebed.NewSliceCache(state.cfg.SliceConfig())
			return writeVenues(cmd.OutOrStdout(), cache.Slice(vp, 1, pool))
		},
	}
	cmd.Flags().Float64Var(&vp.CenterLat, "lat", 40.7128, "viewport center latitude")
	cmd.Flags().Float64Var(&vp.CenterLng, "lng", -74.0060, "viewport center longitude")
	cmd.Flags().Float64Var(&vp.LatSpan, "lat-span", 0.1, "viewport latitude span in degrees")
	cmd.Flags().Float64Var(&vp.LngSpan, "lng-span", 0.1, "viewport longitude span in degrees")
	return cmd
}

// blocked joins the configured blocklist with extra names.
func blocked(extra []string) []string {
	return append(append([]string(nil), state.cfg.Engine.Blocklist...), extra...)
}

func writeVenues(out io.Writer, venues []venuebed.Venue) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tRATING\tHALAL\tADDRESS")
	for _, v := range venues {
		rating := "-"
		if r, ok := v.RatingValue(); ok {
			rating = strconv.FormatFloat(r, 'f', 1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Source, rating, v.Halal, v.Address)
	}
	return w.Flush()
}

func writeSuggestions(out io.Writer, suggestions []venuebed.CuratedSuggestion) error {
	if len(suggestions) == 0 {
		fmt.Fprintln(out, "\nEvery curated name matched.")
		return nil
	}
	fmt.Fprintln(out, "\nUnmatched curated names:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tCURATED\tCLOSEST\tDISTANCE")
	for _, s := range suggestions {
		closest, dist := "-", "-"
		if s.Suggestion != "" {
			closest, dist = s.Suggestion, strconv.Itoa(s.Distance)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Region, s.Name, closest, dist)
	}
	return w.Flush()
}

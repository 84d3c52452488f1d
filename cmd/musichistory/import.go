package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/dashboard"
	"github.com/Tab-and-Quill/spotify-music-history/internal/pipeline"
)

// maxFlowSteps bounds the fetch/aggregate/keys loop driven by the dashboard.
const maxFlowSteps = 8

// runImport adds each file through the worker, then loads the lifetime summary
// the same way an interactive client does and prints it.
func runImport(ctx context.Context, out io.Writer, worker *pipeline.Worker, paths []string, limit int) error {
	if len(paths) == 0 {
		return errors.New("import needs at least one file")
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go worker.Run(runCtx)

	state := dashboard.New()
	unsubscribe := state.Subscribe(func(s dashboard.Snapshot) {
		slog.Debug("Dashboard updated", "version", s.Version, "period", s.Period)
	})
	defer unsubscribe()

	for _, list := range []dashboard.List{dashboard.ListSongs, dashboard.ListArtists, dashboard.ListPodcasts} {
		if _, err := state.SetLimit(list, limit); err != nil {
			return err
		}
	}

	added := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		resp, err := roundTrip(ctx, worker, pipeline.Request{
			Type: pipeline.TypeAddFile,
			Name: filepath.Base(path),
			Data: data,
		})
		if err != nil {
			return err
		}
		state.Apply(resp)
		if resp.IsError() {
			fmt.Fprintf(out, "skipped %s: %s\n", path, resp.Message)
			continue
		}
		added++
	}

	// New files invalidate stored summaries, so aggregate before the first fetch.
	next := &pipeline.Request{Type: pipeline.TypeFetchAggregatedData, Filter: aggregation.PeriodLifetime}
	if added > 0 {
		next = &pipeline.Request{Type: pipeline.TypeCheckAndAggregate}
	}

	var snap dashboard.Snapshot
	for step := 0; next != nil; step++ {
		if step == maxFlowSteps {
			return errors.New("summary load did not settle")
		}
		resp, err := roundTrip(ctx, worker, *next)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("%s: %s", resp.Type, resp.Message)
		}
		snap, next = state.Apply(resp)
	}

	return printSnapshot(out, snap)
}

// roundTrip submits req and waits for its response.
func roundTrip(ctx context.Context, worker *pipeline.Worker, req pipeline.Request) (pipeline.Response, error) {
	id, err := worker.Submit(ctx, req)
	if err != nil {
		return pipeline.Response{}, err
	}
	for {
		select {
		case resp, ok := <-worker.Responses():
			if !ok {
				return pipeline.Response{}, pipeline.ErrClosed
			}
			if resp.ID == id {
				return resp, nil
			}
		case <-ctx.Done():
			return pipeline.Response{}, ctx.Err()
		}
	}
}

func printSnapshot(out io.Writer, snap dashboard.Snapshot) error {
	s := snap.Summary
	if s == nil {
		return errors.New("no summary loaded")
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s\n", s.Period)
	fmt.Fprintf(tw, "Song hours\t%.0f\n", s.TotalSongHoursPlayed)
	fmt.Fprintf(tw, "Distinct songs\t%d\n", s.DistinctSongs)
	fmt.Fprintf(tw, "Podcast hours\t%.0f\n", s.TotalPodcastHoursPlayed)
	fmt.Fprintf(tw, "Distinct podcasts\t%d\n", s.DistinctPodcasts)
	if snap.LastRun != nil && snap.LastRun.Skipped > 0 {
		fmt.Fprintf(tw, "Skipped records\t%d\n", snap.LastRun.Skipped)
	}

	fmt.Fprintln(tw, "\nTop songs\tArtist\tPlays\tHours")
	for i, song := range snap.Songs() {
		fmt.Fprintf(tw, "%d. %s\t%s\t%d\t%.1f\n", i+1, song.TrackName, song.ArtistName,
			song.Count.Count, aggregation.HoursFromMs(song.Count.Ms))
	}
	fmt.Fprintln(tw, "\nTop artists\tPlays\tHours")
	for i, a := range snap.Artists() {
		fmt.Fprintf(tw, "%d. %s\t%d\t%.1f\n", i+1, a.Artist, a.Count.Count, aggregation.HoursFromMs(a.Count.Ms))
	}
	fmt.Fprintln(tw, "\nTop podcasts\tPlays\tHours")
	for i, p := range snap.Podcasts() {
		fmt.Fprintf(tw, "%d. %s\t%d\t%.1f\n", i+1, p.EpisodeShowName, p.Count.Count, aggregation.HoursFromMs(p.Count.Ms))
	}

	if len(snap.Chart.Points) > 0 {
		fmt.Fprintf(tw, "\nSong hours by %s\t\n", snap.Chart.Axis)
		for _, pt := range snap.Chart.Points {
			fmt.Fprintf(tw, "%s\t%s\n", pt.Label, pt.Hours.StringFixed(0))
		}
	}
	return tw.Flush()
}
